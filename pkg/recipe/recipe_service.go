package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Plateful-Backend/domain"
	"Plateful-Backend/entities"
	"Plateful-Backend/internal/utils"
	"Plateful-Backend/internal/utils/storage"
	"Plateful-Backend/pkg/catalog"
	"Plateful-Backend/pkg/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, authorID string) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, requesterID string) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, recipeID string, requesterID string) error
		GetRecipe(ctx context.Context, recipeID string, viewerID string) (domain.RecipeResponse, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string, page, limit int) ([]domain.RecipeResponse, int64, error)

		AddFavorite(ctx context.Context, recipeID, userID string) (domain.RecipeShortResponse, error)
		RemoveFavorite(ctx context.Context, recipeID, userID string) error
		AddToShoppingCart(ctx context.Context, recipeID, userID string) (domain.RecipeShortResponse, error)
		RemoveFromShoppingCart(ctx context.Context, recipeID, userID string) error

		DownloadShoppingCart(ctx context.Context, userID string) (domain.ShoppingListFile, error)
	}

	recipeService struct {
		recipeRepository  RecipeRepository
		catalogRepository catalog.CatalogRepository
		userRepository    user.UserRepository
		s3                storage.AwsS3
	}
)

func NewRecipeService(recipeRepository RecipeRepository, catalogRepository catalog.CatalogRepository, userRepository user.UserRepository, s3 storage.AwsS3) RecipeService {
	return &recipeService{
		recipeRepository:  recipeRepository,
		catalogRepository: catalogRepository,
		userRepository:    userRepository,
		s3:                s3,
	}
}

// validateAggregate enforces the recipe invariants shared by create and
// update: non-empty unique tag set resolving to stored tags, non-empty
// unique ingredient set with positive amounts resolving to stored
// ingredients, positive cooking time. Nothing is persisted when any of
// these fail.
func (s *recipeService) validateAggregate(ctx context.Context, tagIDs []string, specs []domain.IngredientSpec, cookingTime int) error {
	if cookingTime < 1 {
		return domain.ErrInvalidCookingTime
	}

	if len(tagIDs) == 0 {
		return domain.ErrNoTags
	}
	seenTags := make(map[string]bool, len(tagIDs))
	for _, id := range tagIDs {
		if seenTags[id] {
			return domain.ErrDuplicateTag
		}
		seenTags[id] = true
	}
	tagCount, err := s.catalogRepository.CountTagsByIDs(ctx, tagIDs)
	if err != nil {
		return err
	}
	if tagCount != int64(len(tagIDs)) {
		return domain.ErrUnknownTag
	}

	if len(specs) == 0 {
		return domain.ErrNoIngredients
	}
	ingredientIDs := make([]string, 0, len(specs))
	seenIngredients := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if spec.Amount < 1 {
			return domain.ErrInvalidAmount
		}
		if seenIngredients[spec.ID] {
			return domain.ErrDuplicateIngredient
		}
		seenIngredients[spec.ID] = true
		ingredientIDs = append(ingredientIDs, spec.ID)
	}
	ingredientCount, err := s.catalogRepository.CountIngredientsByIDs(ctx, ingredientIDs)
	if err != nil {
		return err
	}
	if ingredientCount != int64(len(ingredientIDs)) {
		return domain.ErrUnknownIngredient
	}

	return nil
}

func buildAssociations(tagIDs []string, specs []domain.IngredientSpec) ([]*entities.RecipeIngredient, []*entities.RecipeTag, error) {
	lines := make([]*entities.RecipeIngredient, 0, len(specs))
	for _, spec := range specs {
		ingredientID, err := uuid.Parse(spec.ID)
		if err != nil {
			return nil, nil, domain.ErrParseUUID
		}
		lines = append(lines, &entities.RecipeIngredient{
			ID:           uuid.New(),
			IngredientID: ingredientID,
			Amount:       spec.Amount,
		})
	}

	tags := make([]*entities.RecipeTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		tagID, err := uuid.Parse(id)
		if err != nil {
			return nil, nil, domain.ErrParseUUID
		}
		tags = append(tags, &entities.RecipeTag{
			ID:    uuid.New(),
			TagID: tagID,
		})
	}

	return lines, tags, nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, authorID string) (domain.RecipeResponse, error) {
	if err := s.validateAggregate(ctx, req.Tags, req.Ingredients, req.CookingTime); err != nil {
		return domain.RecipeResponse{}, err
	}

	authorUUID, err := uuid.Parse(authorID)
	if err != nil {
		return domain.RecipeResponse{}, domain.ErrParseUUID
	}

	lines, tags, err := buildAssociations(req.Tags, req.Ingredients)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	recipe := &entities.Recipe{
		ID:          uuid.New(),
		UserID:      authorUUID,
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}

	imageURL, err := s.uploadImage(recipe.ID.String(), req.Image)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	recipe.ImageURL = imageURL

	if err := s.recipeRepository.CreateRecipe(ctx, recipe, lines, tags); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipe(ctx, recipe.ID.String(), authorID)
}

// UpdateRecipe is a full replace: the ingredient and tag sets supplied in
// the request entirely supersede the stored ones, scalars included. Only
// the image may be omitted to keep the current one.
func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, requesterID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	if recipe.UserID.String() != requesterID {
		return domain.RecipeResponse{}, domain.ErrUnauthorizedRecipeAccess
	}

	if err := s.validateAggregate(ctx, req.Tags, req.Ingredients, req.CookingTime); err != nil {
		return domain.RecipeResponse{}, err
	}

	lines, tags, err := buildAssociations(req.Tags, req.Ingredients)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	recipe.Name = req.Name
	recipe.Text = req.Text
	recipe.CookingTime = req.CookingTime

	if req.Image != "" {
		if recipe.ImageURL != "" {
			if objectKey := s.s3.GetObjectKeyFromLink(recipe.ImageURL); objectKey != "" {
				_ = s.s3.DeleteFile(objectKey)
			}
		}
		imageURL, err := s.uploadImage(recipe.ID.String(), req.Image)
		if err != nil {
			return domain.RecipeResponse{}, err
		}
		recipe.ImageURL = imageURL
	}

	// Save only wants the recipe row; drop the loaded associations so
	// gorm does not upsert the old set alongside the new one.
	recipe.Ingredients = nil
	recipe.Tags = nil
	recipe.User = nil

	if err := s.recipeRepository.ReplaceRecipe(ctx, recipe, lines, tags); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipe(ctx, recipe.ID.String(), requesterID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, requesterID string) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if recipe.UserID.String() != requesterID {
		return domain.ErrUnauthorizedRecipeAccess
	}

	if recipe.ImageURL != "" {
		if objectKey := s.s3.GetObjectKeyFromLink(recipe.ImageURL); objectKey != "" {
			_ = s.s3.DeleteFile(objectKey)
		}
	}

	return s.recipeRepository.DeleteRecipe(ctx, recipeID)
}

func (s *recipeService) GetRecipe(ctx context.Context, recipeID string, viewerID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	isFavorited, err := s.recipeRepository.IsFavorited(ctx, viewerID, recipeID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	inCart, err := s.recipeRepository.IsInShoppingCart(ctx, viewerID, recipeID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	isSubscribed, err := s.userRepository.IsSubscribed(ctx, viewerID, recipe.UserID.String())
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	return toRecipeResponse(recipe, isFavorited, inCart, isSubscribed), nil
}

func (s *recipeService) GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string, page, limit int) ([]domain.RecipeResponse, int64, error) {
	// Anonymous viewers have no relations: membership=1 matches nothing,
	// membership=0 matches everything, so the filter is dropped.
	if viewerID == "" {
		if (filter.IsFavorited != nil && *filter.IsFavorited == 1) ||
			(filter.IsInShoppingCart != nil && *filter.IsInShoppingCart == 1) {
			return []domain.RecipeResponse{}, 0, nil
		}
		filter.IsFavorited = nil
		filter.IsInShoppingCart = nil
	}

	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter, viewerID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	favorites, cart, err := s.recipeRepository.GetRelationRecipeIDs(ctx, viewerID)
	if err != nil {
		return nil, 0, err
	}

	authorIDs := make([]string, 0, len(recipes))
	for _, recipe := range recipes {
		authorIDs = append(authorIDs, recipe.UserID.String())
	}
	subscribed, err := s.userRepository.GetSubscribedIDs(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, 0, err
	}

	response := make([]domain.RecipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		id := recipe.ID.String()
		response = append(response, toRecipeResponse(recipe, favorites[id], cart[id], subscribed[recipe.UserID.String()]))
	}

	return response, count, nil
}

func (s *recipeService) AddFavorite(ctx context.Context, recipeID, userID string) (domain.RecipeShortResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeShortResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeShortResponse{}, err
	}

	exists, err := s.recipeRepository.IsFavorited(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}
	if exists {
		return domain.RecipeShortResponse{}, domain.ErrAlreadyFavorited
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeShortResponse{}, domain.ErrParseUUID
	}

	fav := &entities.Favorite{
		ID:       uuid.New(),
		UserID:   userUUID,
		RecipeID: recipe.ID,
	}
	if err := s.recipeRepository.AddFavorite(ctx, fav); err != nil {
		// the unique index is the authoritative guard against a
		// concurrent duplicate add
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeShortResponse{}, domain.ErrAlreadyFavorited
		}
		return domain.RecipeShortResponse{}, err
	}

	return toRecipeShortResponse(recipe), nil
}

func (s *recipeService) RemoveFavorite(ctx context.Context, recipeID, userID string) error {
	affected, err := s.recipeRepository.RemoveFavorite(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFavorited
	}
	return nil
}

func (s *recipeService) AddToShoppingCart(ctx context.Context, recipeID, userID string) (domain.RecipeShortResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeShortResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeShortResponse{}, err
	}

	exists, err := s.recipeRepository.IsInShoppingCart(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}
	if exists {
		return domain.RecipeShortResponse{}, domain.ErrAlreadyInCart
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeShortResponse{}, domain.ErrParseUUID
	}

	entry := &entities.ShoppingEntry{
		ID:       uuid.New(),
		UserID:   userUUID,
		RecipeID: recipe.ID,
	}
	if err := s.recipeRepository.AddShoppingEntry(ctx, entry); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeShortResponse{}, domain.ErrAlreadyInCart
		}
		return domain.RecipeShortResponse{}, err
	}

	return toRecipeShortResponse(recipe), nil
}

func (s *recipeService) RemoveFromShoppingCart(ctx context.Context, recipeID, userID string) error {
	affected, err := s.recipeRepository.RemoveShoppingEntry(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotInCart
	}
	return nil
}

// DownloadShoppingCart renders the aggregated cart as a plain text
// attachment: a header line, then one `Name (unit) - total` line per
// distinct ingredient. An empty cart produces only the header.
func (s *recipeService) DownloadShoppingCart(ctx context.Context, userID string) (domain.ShoppingListFile, error) {
	totals, err := s.recipeRepository.GetShoppingListTotals(ctx, userID)
	if err != nil {
		return domain.ShoppingListFile{}, err
	}

	lines := make([]string, 0, len(totals)+1)
	lines = append(lines, domain.ShoppingListHeader)
	for _, total := range totals {
		lines = append(lines, fmt.Sprintf("%s (%s) - %d", total.Name, total.MeasurementUnit, total.Total))
	}

	return domain.ShoppingListFile{
		Content:     []byte(strings.Join(lines, "\n")),
		FileName:    domain.ShoppingListFileName,
		ContentType: domain.ShoppingListContentType,
	}, nil
}

func (s *recipeService) uploadImage(recipeID string, dataURI string) (string, error) {
	data, ext, err := utils.DecodeBase64Image(dataURI)
	if err != nil {
		return "", domain.ErrInvalidImagePayload
	}

	fileName := fmt.Sprintf("recipe-%s", recipeID)
	objectKey, err := s.s3.UploadFile(fileName, data, ext, "recipes", storage.AllowImage...)
	if err != nil {
		return "", err
	}
	return s.s3.GetPublicLinkKey(objectKey), nil
}

func toRecipeResponse(recipe *entities.Recipe, isFavorited, inCart, isSubscribed bool) domain.RecipeResponse {
	res := domain.RecipeResponse{
		ID:               recipe.ID.String(),
		Name:             recipe.Name,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
		Image:            recipe.ImageURL,
		IsFavorited:      isFavorited,
		IsInShoppingCart: inCart,
		Tags:             make([]domain.TagResponse, 0, len(recipe.Tags)),
		Ingredients:      make([]domain.RecipeIngredientResponse, 0, len(recipe.Ingredients)),
	}

	if recipe.User != nil {
		res.Author = domain.UserResponse{
			ID:           recipe.User.ID.String(),
			Email:        recipe.User.Email,
			Username:     recipe.User.Username,
			FirstName:    recipe.User.FirstName,
			LastName:     recipe.User.LastName,
			IsSubscribed: isSubscribed,
		}
	}

	for _, rt := range recipe.Tags {
		if rt.Tag == nil {
			continue
		}
		res.Tags = append(res.Tags, domain.TagResponse{
			ID:    rt.Tag.ID.String(),
			Name:  rt.Tag.Name,
			Color: rt.Tag.Color,
			Slug:  rt.Tag.Slug,
		})
	}

	for _, line := range recipe.Ingredients {
		if line.Ingredient == nil {
			continue
		}
		res.Ingredients = append(res.Ingredients, domain.RecipeIngredientResponse{
			ID:              line.Ingredient.ID.String(),
			Name:            line.Ingredient.Name,
			MeasurementUnit: line.Ingredient.MeasurementUnit,
			Amount:          line.Amount,
		})
	}

	return res
}

func toRecipeShortResponse(recipe *entities.Recipe) domain.RecipeShortResponse {
	return domain.RecipeShortResponse{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}
}
