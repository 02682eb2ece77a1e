package recipe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"Plateful-Backend/domain"
	"Plateful-Backend/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// in-memory fakes implementing the repository interfaces

type fakeCatalogRepo struct {
	tags        map[string]*entities.Tag
	ingredients map[string]*entities.Ingredient
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		tags:        make(map[string]*entities.Tag),
		ingredients: make(map[string]*entities.Ingredient),
	}
}

func (f *fakeCatalogRepo) GetTags(ctx context.Context) ([]*entities.Tag, error) {
	var tags []*entities.Tag
	for _, t := range f.tags {
		tags = append(tags, t)
	}
	return tags, nil
}

func (f *fakeCatalogRepo) GetTagByID(ctx context.Context, id string) (*entities.Tag, error) {
	tag, ok := f.tags[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return tag, nil
}

func (f *fakeCatalogRepo) CreateTag(ctx context.Context, tag *entities.Tag) error {
	for _, t := range f.tags {
		if t.Slug == tag.Slug {
			return gorm.ErrDuplicatedKey
		}
	}
	if tag.ID == uuid.Nil {
		tag.ID = uuid.New()
	}
	f.tags[tag.ID.String()] = tag
	return nil
}

func (f *fakeCatalogRepo) CountTagsByIDs(ctx context.Context, ids []string) (int64, error) {
	var count int64
	for _, id := range ids {
		if _, ok := f.tags[id]; ok {
			count++
		}
	}
	return count, nil
}

func (f *fakeCatalogRepo) GetIngredients(ctx context.Context, namePrefix string) ([]*entities.Ingredient, error) {
	var ingredients []*entities.Ingredient
	for _, i := range f.ingredients {
		if namePrefix == "" || strings.HasPrefix(strings.ToLower(i.Name), strings.ToLower(namePrefix)) {
			ingredients = append(ingredients, i)
		}
	}
	return ingredients, nil
}

func (f *fakeCatalogRepo) GetIngredientByID(ctx context.Context, id string) (*entities.Ingredient, error) {
	ingredient, ok := f.ingredients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ingredient, nil
}

func (f *fakeCatalogRepo) CreateIngredient(ctx context.Context, ingredient *entities.Ingredient) error {
	if ingredient.ID == uuid.Nil {
		ingredient.ID = uuid.New()
	}
	f.ingredients[ingredient.ID.String()] = ingredient
	return nil
}

func (f *fakeCatalogRepo) CountIngredientsByIDs(ctx context.Context, ids []string) (int64, error) {
	var count int64
	for _, id := range ids {
		if _, ok := f.ingredients[id]; ok {
			count++
		}
	}
	return count, nil
}

type fakeUserRepo struct {
	users map[string]*entities.User
	subs  map[string]bool // "user|target"
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: make(map[string]*entities.User),
		subs:  make(map[string]bool),
	}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *entities.User) error {
	f.users[user.ID.String()] = user
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*entities.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, user *entities.User) error {
	f.users[user.ID.String()] = user
	return nil
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := f.GetUserByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	for _, u := range f.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) IsSubscribed(ctx context.Context, userID, targetID string) (bool, error) {
	return f.subs[userID+"|"+targetID], nil
}

func (f *fakeUserRepo) GetSubscribedIDs(ctx context.Context, userID string, targetIDs []string) (map[string]bool, error) {
	subscribed := make(map[string]bool)
	for _, id := range targetIDs {
		if f.subs[userID+"|"+id] {
			subscribed[id] = true
		}
	}
	return subscribed, nil
}

type fakeRecipeRepo struct {
	catalog *fakeCatalogRepo
	users   *fakeUserRepo

	recipes   map[string]*entities.Recipe
	order     []string
	lines     map[string][]*entities.RecipeIngredient
	tagRows   map[string][]*entities.RecipeTag
	favorites map[string]bool // "user|recipe"
	cart      map[string]bool
}

func newFakeRecipeRepo(catalog *fakeCatalogRepo, users *fakeUserRepo) *fakeRecipeRepo {
	return &fakeRecipeRepo{
		catalog:   catalog,
		users:     users,
		recipes:   make(map[string]*entities.Recipe),
		lines:     make(map[string][]*entities.RecipeIngredient),
		tagRows:   make(map[string][]*entities.RecipeTag),
		favorites: make(map[string]bool),
		cart:      make(map[string]bool),
	}
}

func (f *fakeRecipeRepo) CreateRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient, tags []*entities.RecipeTag) error {
	id := recipe.ID.String()
	for i := range lines {
		lines[i].RecipeID = recipe.ID
		lines[i].Position = i
	}
	for i := range tags {
		tags[i].RecipeID = recipe.ID
	}
	f.recipes[id] = recipe
	f.order = append(f.order, id)
	f.lines[id] = lines
	f.tagRows[id] = tags
	return nil
}

func (f *fakeRecipeRepo) ReplaceRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient, tags []*entities.RecipeTag) error {
	id := recipe.ID.String()
	if _, ok := f.recipes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range lines {
		lines[i].RecipeID = recipe.ID
		lines[i].Position = i
	}
	for i := range tags {
		tags[i].RecipeID = recipe.ID
	}
	f.recipes[id] = recipe
	f.lines[id] = lines
	f.tagRows[id] = tags
	return nil
}

func (f *fakeRecipeRepo) DeleteRecipe(ctx context.Context, id string) error {
	delete(f.recipes, id)
	delete(f.lines, id)
	delete(f.tagRows, id)
	for i, rid := range f.order {
		if rid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeRecipeRepo) GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error) {
	stored, ok := f.recipes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return f.hydrate(stored), nil
}

// hydrate mimics the repository preloads: author, ordered ingredient
// lines with catalog rows, tag rows with catalog rows.
func (f *fakeRecipeRepo) hydrate(stored *entities.Recipe) *entities.Recipe {
	recipe := *stored
	recipe.User = f.users.users[stored.UserID.String()]

	lines := append([]*entities.RecipeIngredient(nil), f.lines[stored.ID.String()]...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].Position < lines[j].Position })
	recipe.Ingredients = make([]*entities.RecipeIngredient, 0, len(lines))
	for _, line := range lines {
		l := *line
		l.Ingredient = f.catalog.ingredients[line.IngredientID.String()]
		recipe.Ingredients = append(recipe.Ingredients, &l)
	}

	recipe.Tags = make([]*entities.RecipeTag, 0, len(f.tagRows[stored.ID.String()]))
	for _, row := range f.tagRows[stored.ID.String()] {
		r := *row
		r.Tag = f.catalog.tags[row.TagID.String()]
		recipe.Tags = append(recipe.Tags, &r)
	}
	return &recipe
}

func (f *fakeRecipeRepo) GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string, page, limit int) ([]*entities.Recipe, int64, error) {
	var matched []*entities.Recipe
	for _, id := range f.order {
		stored := f.recipes[id]
		if filter.AuthorID != "" && stored.UserID.String() != filter.AuthorID {
			continue
		}
		if len(filter.TagSlugs) > 0 && !f.hasAnyTagSlug(id, filter.TagSlugs) {
			continue
		}
		if filter.IsFavorited != nil && viewerID != "" {
			if f.favorites[viewerID+"|"+id] != (*filter.IsFavorited == 1) {
				continue
			}
		}
		if filter.IsInShoppingCart != nil && viewerID != "" {
			if f.cart[viewerID+"|"+id] != (*filter.IsInShoppingCart == 1) {
				continue
			}
		}
		matched = append(matched, f.hydrate(stored))
	}

	count := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, count, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], count, nil
}

func (f *fakeRecipeRepo) hasAnyTagSlug(recipeID string, slugs []string) bool {
	for _, row := range f.tagRows[recipeID] {
		tag := f.catalog.tags[row.TagID.String()]
		if tag == nil {
			continue
		}
		for _, slug := range slugs {
			if tag.Slug == slug {
				return true
			}
		}
	}
	return false
}

func (f *fakeRecipeRepo) GetRecipesByAuthor(ctx context.Context, authorID string, limit int) ([]*entities.Recipe, int64, error) {
	var matched []*entities.Recipe
	for _, id := range f.order {
		if f.recipes[id].UserID.String() == authorID {
			matched = append(matched, f.recipes[id])
		}
	}
	count := int64(len(matched))
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, count, nil
}

func (f *fakeRecipeRepo) AddFavorite(ctx context.Context, fav *entities.Favorite) error {
	key := fav.UserID.String() + "|" + fav.RecipeID.String()
	if f.favorites[key] {
		return gorm.ErrDuplicatedKey
	}
	f.favorites[key] = true
	return nil
}

func (f *fakeRecipeRepo) RemoveFavorite(ctx context.Context, userID, recipeID string) (int64, error) {
	key := userID + "|" + recipeID
	if !f.favorites[key] {
		return 0, nil
	}
	delete(f.favorites, key)
	return 1, nil
}

func (f *fakeRecipeRepo) IsFavorited(ctx context.Context, userID, recipeID string) (bool, error) {
	return f.favorites[userID+"|"+recipeID], nil
}

func (f *fakeRecipeRepo) AddShoppingEntry(ctx context.Context, entry *entities.ShoppingEntry) error {
	key := entry.UserID.String() + "|" + entry.RecipeID.String()
	if f.cart[key] {
		return gorm.ErrDuplicatedKey
	}
	f.cart[key] = true
	return nil
}

func (f *fakeRecipeRepo) RemoveShoppingEntry(ctx context.Context, userID, recipeID string) (int64, error) {
	key := userID + "|" + recipeID
	if !f.cart[key] {
		return 0, nil
	}
	delete(f.cart, key)
	return 1, nil
}

func (f *fakeRecipeRepo) IsInShoppingCart(ctx context.Context, userID, recipeID string) (bool, error) {
	return f.cart[userID+"|"+recipeID], nil
}

func (f *fakeRecipeRepo) GetRelationRecipeIDs(ctx context.Context, userID string) (map[string]bool, map[string]bool, error) {
	favorites := make(map[string]bool)
	cart := make(map[string]bool)
	for key := range f.favorites {
		parts := strings.SplitN(key, "|", 2)
		if parts[0] == userID {
			favorites[parts[1]] = true
		}
	}
	for key := range f.cart {
		parts := strings.SplitN(key, "|", 2)
		if parts[0] == userID {
			cart[parts[1]] = true
		}
	}
	return favorites, cart, nil
}

func (f *fakeRecipeRepo) GetShoppingListTotals(ctx context.Context, userID string) ([]domain.IngredientTotal, error) {
	sums := make(map[string]*domain.IngredientTotal)
	for key := range f.cart {
		parts := strings.SplitN(key, "|", 2)
		if parts[0] != userID {
			continue
		}
		for _, line := range f.lines[parts[1]] {
			ingredient := f.catalog.ingredients[line.IngredientID.String()]
			if ingredient == nil {
				continue
			}
			if total, ok := sums[ingredient.ID.String()]; ok {
				total.Total += line.Amount
			} else {
				sums[ingredient.ID.String()] = &domain.IngredientTotal{
					Name:            ingredient.Name,
					MeasurementUnit: ingredient.MeasurementUnit,
					Total:           line.Amount,
				}
			}
		}
	}

	totals := make([]domain.IngredientTotal, 0, len(sums))
	for _, total := range sums {
		totals = append(totals, *total)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Name < totals[j].Name })
	return totals, nil
}

type fakeS3 struct {
	uploads map[string][]byte
	deleted []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{uploads: make(map[string][]byte)}
}

func (f *fakeS3) UploadFile(fileName string, data []byte, ext string, dir string, allowedExt ...string) (string, error) {
	key := fmt.Sprintf("%s/%s.%s", dir, fileName, ext)
	f.uploads[key] = data
	return key, nil
}

func (f *fakeS3) DeleteFile(objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	delete(f.uploads, objectKey)
	return nil
}

func (f *fakeS3) GetPublicLinkKey(objectKey string) string {
	return "https://bucket.s3.test.amazonaws.com/" + objectKey
}

func (f *fakeS3) GetObjectKeyFromLink(link string) string {
	return strings.TrimPrefix(link, "https://bucket.s3.test.amazonaws.com/")
}

// test fixture

type recipeFixture struct {
	service RecipeService
	repo    *fakeRecipeRepo
	catalog *fakeCatalogRepo
	users   *fakeUserRepo
	s3      *fakeS3

	author  *entities.User
	viewer  *entities.User
	salt    *entities.Ingredient
	pepper  *entities.Ingredient
	dinner  *entities.Tag
	dessert *entities.Tag
}

func newRecipeFixture(t *testing.T) *recipeFixture {
	t.Helper()

	catalogRepo := newFakeCatalogRepo()
	userRepo := newFakeUserRepo()
	recipeRepo := newFakeRecipeRepo(catalogRepo, userRepo)
	s3 := newFakeS3()

	f := &recipeFixture{
		service: NewRecipeService(recipeRepo, catalogRepo, userRepo, s3),
		repo:    recipeRepo,
		catalog: catalogRepo,
		users:   userRepo,
		s3:      s3,
	}

	f.author = &entities.User{ID: uuid.New(), Email: "chef@example.com", Username: "chef"}
	f.viewer = &entities.User{ID: uuid.New(), Email: "guest@example.com", Username: "guest"}
	userRepo.users[f.author.ID.String()] = f.author
	userRepo.users[f.viewer.ID.String()] = f.viewer

	f.salt = &entities.Ingredient{ID: uuid.New(), Name: "Salt", MeasurementUnit: "g"}
	f.pepper = &entities.Ingredient{ID: uuid.New(), Name: "Pepper", MeasurementUnit: "g"}
	catalogRepo.ingredients[f.salt.ID.String()] = f.salt
	catalogRepo.ingredients[f.pepper.ID.String()] = f.pepper

	f.dinner = &entities.Tag{ID: uuid.New(), Name: "Dinner", Color: "green", Slug: "dinner"}
	f.dessert = &entities.Tag{ID: uuid.New(), Name: "Dessert", Color: "pink", Slug: "dessert"}
	catalogRepo.tags[f.dinner.ID.String()] = f.dinner
	catalogRepo.tags[f.dessert.ID.String()] = f.dessert

	return f
}

const testImage = "data:image/png;base64,aW1hZ2UtYnl0ZXM="

func (f *recipeFixture) createRequest() domain.CreateRecipeRequest {
	return domain.CreateRecipeRequest{
		Name:        "Soup",
		Text:        "Boil everything.",
		CookingTime: 30,
		Image:       testImage,
		Tags:        []string{f.dinner.ID.String()},
		Ingredients: []domain.IngredientSpec{
			{ID: f.salt.ID.String(), Amount: 10},
			{ID: f.pepper.ID.String(), Amount: 3},
		},
	}
}

func TestCreateRecipe_RoundTrip(t *testing.T) {
	f := newRecipeFixture(t)

	res, err := f.service.CreateRecipe(context.Background(), f.createRequest(), f.author.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "Soup", res.Name)
	assert.Equal(t, "Boil everything.", res.Text)
	assert.Equal(t, 30, res.CookingTime)
	assert.Equal(t, f.author.ID.String(), res.Author.ID)
	assert.NotEmpty(t, res.Image)

	require.Len(t, res.Ingredients, 2)
	assert.Equal(t, f.salt.ID.String(), res.Ingredients[0].ID)
	assert.Equal(t, "Salt", res.Ingredients[0].Name)
	assert.Equal(t, "g", res.Ingredients[0].MeasurementUnit)
	assert.Equal(t, 10, res.Ingredients[0].Amount)
	assert.Equal(t, f.pepper.ID.String(), res.Ingredients[1].ID)
	assert.Equal(t, 3, res.Ingredients[1].Amount)

	require.Len(t, res.Tags, 1)
	assert.Equal(t, f.dinner.ID.String(), res.Tags[0].ID)
	assert.Equal(t, "dinner", res.Tags[0].Slug)

	// persisted lines match the input specs exactly
	lines := f.repo.lines[res.ID]
	require.Len(t, lines, 2)
	assert.Equal(t, f.salt.ID, lines[0].IngredientID)
	assert.Equal(t, 10, lines[0].Amount)
	assert.Equal(t, f.pepper.ID, lines[1].IngredientID)
	assert.Equal(t, 3, lines[1].Amount)
}

func TestCreateRecipe_Validation(t *testing.T) {
	f := newRecipeFixture(t)

	tests := []struct {
		name    string
		mutate  func(*domain.CreateRecipeRequest)
		wantErr error
	}{
		{
			name:    "empty ingredients",
			mutate:  func(r *domain.CreateRecipeRequest) { r.Ingredients = nil },
			wantErr: domain.ErrNoIngredients,
		},
		{
			name: "duplicate ingredient",
			mutate: func(r *domain.CreateRecipeRequest) {
				r.Ingredients = append(r.Ingredients, domain.IngredientSpec{ID: f.salt.ID.String(), Amount: 1})
			},
			wantErr: domain.ErrDuplicateIngredient,
		},
		{
			name: "unknown ingredient",
			mutate: func(r *domain.CreateRecipeRequest) {
				r.Ingredients = []domain.IngredientSpec{{ID: uuid.NewString(), Amount: 1}}
			},
			wantErr: domain.ErrUnknownIngredient,
		},
		{
			name: "non-positive amount",
			mutate: func(r *domain.CreateRecipeRequest) {
				r.Ingredients[0].Amount = 0
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "empty tags",
			mutate:  func(r *domain.CreateRecipeRequest) { r.Tags = nil },
			wantErr: domain.ErrNoTags,
		},
		{
			name: "duplicate tag",
			mutate: func(r *domain.CreateRecipeRequest) {
				r.Tags = append(r.Tags, f.dinner.ID.String())
			},
			wantErr: domain.ErrDuplicateTag,
		},
		{
			name: "unknown tag",
			mutate: func(r *domain.CreateRecipeRequest) {
				r.Tags = []string{uuid.NewString()}
			},
			wantErr: domain.ErrUnknownTag,
		},
		{
			name:    "non-positive cooking time",
			mutate:  func(r *domain.CreateRecipeRequest) { r.CookingTime = 0 },
			wantErr: domain.ErrInvalidCookingTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.createRequest()
			tt.mutate(&req)

			_, err := f.service.CreateRecipe(context.Background(), req, f.author.ID.String())
			assert.ErrorIs(t, err, tt.wantErr)
			// all-or-nothing: nothing persisted on a failed create
			assert.Empty(t, f.repo.recipes)
		})
	}
}

func TestUpdateRecipe_FullReplace(t *testing.T) {
	f := newRecipeFixture(t)

	created, err := f.service.CreateRecipe(context.Background(), f.createRequest(), f.author.ID.String())
	require.NoError(t, err)

	update := domain.UpdateRecipeRequest{
		Name:        "Stew",
		Text:        "Simmer slowly.",
		CookingTime: 90,
		Tags:        []string{f.dessert.ID.String()},
		Ingredients: []domain.IngredientSpec{{ID: f.pepper.ID.String(), Amount: 7}},
	}

	res, err := f.service.UpdateRecipe(context.Background(), created.ID, update, f.author.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "Stew", res.Name)
	assert.Equal(t, 90, res.CookingTime)

	// no residue from the prior sets
	require.Len(t, res.Ingredients, 1)
	assert.Equal(t, f.pepper.ID.String(), res.Ingredients[0].ID)
	assert.Equal(t, 7, res.Ingredients[0].Amount)
	require.Len(t, res.Tags, 1)
	assert.Equal(t, f.dessert.ID.String(), res.Tags[0].ID)

	lines := f.repo.lines[created.ID]
	require.Len(t, lines, 1)
	assert.Equal(t, f.pepper.ID, lines[0].IngredientID)
}

func TestUpdateRecipe_RequiresIngredientsAndTags(t *testing.T) {
	f := newRecipeFixture(t)

	created, err := f.service.CreateRecipe(context.Background(), f.createRequest(), f.author.ID.String())
	require.NoError(t, err)

	_, err = f.service.UpdateRecipe(context.Background(), created.ID, domain.UpdateRecipeRequest{
		Name:        "Stew",
		Text:        "Simmer.",
		CookingTime: 10,
		Tags:        []string{f.dinner.ID.String()},
	}, f.author.ID.String())
	assert.ErrorIs(t, err, domain.ErrNoIngredients)

	_, err = f.service.UpdateRecipe(context.Background(), created.ID, domain.UpdateRecipeRequest{
		Name:        "Stew",
		Text:        "Simmer.",
		CookingTime: 10,
		Ingredients: []domain.IngredientSpec{{ID: f.salt.ID.String(), Amount: 1}},
	}, f.author.ID.String())
	assert.ErrorIs(t, err, domain.ErrNoTags)
}

func TestUpdateRecipe_OnlyAuthor(t *testing.T) {
	f := newRecipeFixture(t)

	created, err := f.service.CreateRecipe(context.Background(), f.createRequest(), f.author.ID.String())
	require.NoError(t, err)

	update := domain.UpdateRecipeRequest{
		Name:        "Hijacked",
		Text:        "x",
		CookingTime: 1,
		Tags:        []string{f.dinner.ID.String()},
		Ingredients: []domain.IngredientSpec{{ID: f.salt.ID.String(), Amount: 1}},
	}
	_, err = f.service.UpdateRecipe(context.Background(), created.ID, update, f.viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrUnauthorizedRecipeAccess)

	err = f.service.DeleteRecipe(context.Background(), created.ID, f.viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrUnauthorizedRecipeAccess)
}

func TestFavoriteLifecycle(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateRecipe(ctx, f.createRequest(), f.author.ID.String())
	require.NoError(t, err)
	viewer := f.viewer.ID.String()

	short, err := f.service.AddFavorite(ctx, created.ID, viewer)
	require.NoError(t, err)
	assert.Equal(t, created.ID, short.ID)
	assert.Equal(t, "Soup", short.Name)
	assert.Equal(t, 30, short.CookingTime)

	_, err = f.service.AddFavorite(ctx, created.ID, viewer)
	assert.ErrorIs(t, err, domain.ErrAlreadyFavorited)

	require.NoError(t, f.service.RemoveFavorite(ctx, created.ID, viewer))
	assert.Empty(t, f.repo.favorites)

	err = f.service.RemoveFavorite(ctx, created.ID, viewer)
	assert.ErrorIs(t, err, domain.ErrNotFavorited)
}

func TestAddFavorite_UnknownRecipe(t *testing.T) {
	f := newRecipeFixture(t)

	_, err := f.service.AddFavorite(context.Background(), uuid.NewString(), f.viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestShoppingCartLifecycle(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateRecipe(ctx, f.createRequest(), f.author.ID.String())
	require.NoError(t, err)
	viewer := f.viewer.ID.String()

	_, err = f.service.AddToShoppingCart(ctx, created.ID, viewer)
	require.NoError(t, err)

	_, err = f.service.AddToShoppingCart(ctx, created.ID, viewer)
	assert.ErrorIs(t, err, domain.ErrAlreadyInCart)

	require.NoError(t, f.service.RemoveFromShoppingCart(ctx, created.ID, viewer))

	err = f.service.RemoveFromShoppingCart(ctx, created.ID, viewer)
	assert.ErrorIs(t, err, domain.ErrNotInCart)
}

func TestDownloadShoppingCart_SumsAcrossRecipes(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	viewer := f.viewer.ID.String()

	first := f.createRequest()
	first.Ingredients = []domain.IngredientSpec{{ID: f.salt.ID.String(), Amount: 10}}
	createdFirst, err := f.service.CreateRecipe(ctx, first, f.author.ID.String())
	require.NoError(t, err)

	second := f.createRequest()
	second.Name = "Salad"
	second.Ingredients = []domain.IngredientSpec{
		{ID: f.salt.ID.String(), Amount: 5},
		{ID: f.pepper.ID.String(), Amount: 2},
	}
	createdSecond, err := f.service.CreateRecipe(ctx, second, f.author.ID.String())
	require.NoError(t, err)

	_, err = f.service.AddToShoppingCart(ctx, createdFirst.ID, viewer)
	require.NoError(t, err)
	_, err = f.service.AddToShoppingCart(ctx, createdSecond.ID, viewer)
	require.NoError(t, err)

	file, err := f.service.DownloadShoppingCart(ctx, viewer)
	require.NoError(t, err)

	assert.Equal(t, "shopping_cart.txt", file.FileName)
	assert.Equal(t, "text/plain", file.ContentType)

	content := string(file.Content)
	lines := strings.Split(content, "\n")
	assert.Equal(t, domain.ShoppingListHeader, lines[0])
	assert.Contains(t, lines, "Salt (g) - 15")
	assert.Contains(t, lines, "Pepper (g) - 2")
	assert.Len(t, lines, 3)

	// stable across repeated calls for the same cart state
	again, err := f.service.DownloadShoppingCart(ctx, viewer)
	require.NoError(t, err)
	assert.Equal(t, content, string(again.Content))
}

func TestDownloadShoppingCart_EmptyCart(t *testing.T) {
	f := newRecipeFixture(t)

	file, err := f.service.DownloadShoppingCart(context.Background(), f.viewer.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ShoppingListHeader, string(file.Content))
}

func TestGetRecipes_AnonymousMembershipFilters(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateRecipe(ctx, f.createRequest(), f.author.ID.String())
	require.NoError(t, err)

	one := 1
	recipes, count, err := f.service.GetRecipes(ctx, domain.RecipeFilter{IsFavorited: &one}, "", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, recipes)
	assert.Zero(t, count)

	zero := 0
	recipes, count, err = f.service.GetRecipes(ctx, domain.RecipeFilter{IsFavorited: &zero}, "", 1, 20)
	require.NoError(t, err)
	assert.Len(t, recipes, 1)
	assert.Equal(t, int64(1), count)
}

func TestGetRecipes_MembershipFilters(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	viewer := f.viewer.ID.String()

	first, err := f.service.CreateRecipe(ctx, f.createRequest(), f.author.ID.String())
	require.NoError(t, err)
	second := f.createRequest()
	second.Name = "Salad"
	_, err = f.service.CreateRecipe(ctx, second, f.author.ID.String())
	require.NoError(t, err)

	_, err = f.service.AddFavorite(ctx, first.ID, viewer)
	require.NoError(t, err)

	one := 1
	recipes, _, err := f.service.GetRecipes(ctx, domain.RecipeFilter{IsFavorited: &one}, viewer, 1, 20)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, first.ID, recipes[0].ID)
	assert.True(t, recipes[0].IsFavorited)

	zero := 0
	recipes, _, err = f.service.GetRecipes(ctx, domain.RecipeFilter{IsFavorited: &zero}, viewer, 1, 20)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Salad", recipes[0].Name)
	assert.False(t, recipes[0].IsFavorited)
}

func TestGetRecipes_FilterByTagAndAuthor(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateRecipe(ctx, f.createRequest(), f.author.ID.String())
	require.NoError(t, err)

	dessert := f.createRequest()
	dessert.Name = "Cake"
	dessert.Tags = []string{f.dessert.ID.String()}
	_, err = f.service.CreateRecipe(ctx, dessert, f.author.ID.String())
	require.NoError(t, err)

	recipes, _, err := f.service.GetRecipes(ctx, domain.RecipeFilter{TagSlugs: []string{"dessert"}}, "", 1, 20)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Cake", recipes[0].Name)

	recipes, _, err = f.service.GetRecipes(ctx, domain.RecipeFilter{AuthorID: f.viewer.ID.String()}, "", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, recipes)
}

func TestGetRecipe_AnonymousViewer(t *testing.T) {
	f := newRecipeFixture(t)

	created, err := f.service.CreateRecipe(context.Background(), f.createRequest(), f.author.ID.String())
	require.NoError(t, err)

	res, err := f.service.GetRecipe(context.Background(), created.ID, "")
	require.NoError(t, err)
	assert.False(t, res.IsFavorited)
	assert.False(t, res.IsInShoppingCart)
	assert.False(t, res.Author.IsSubscribed)
}

func TestCreateRecipe_RejectsBadImage(t *testing.T) {
	f := newRecipeFixture(t)

	req := f.createRequest()
	req.Image = "not-a-data-uri"

	_, err := f.service.CreateRecipe(context.Background(), req, f.author.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidImagePayload)
	assert.Empty(t, f.repo.recipes)
}
