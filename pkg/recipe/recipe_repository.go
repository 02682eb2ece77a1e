package recipe

import (
	"context"

	"Plateful-Backend/domain"
	"Plateful-Backend/entities"

	"gorm.io/gorm"
)

type (
	RecipeRepository interface {
		CreateRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient, tags []*entities.RecipeTag) error
		ReplaceRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient, tags []*entities.RecipeTag) error
		DeleteRecipe(ctx context.Context, id string) error
		GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string, page, limit int) ([]*entities.Recipe, int64, error)
		GetRecipesByAuthor(ctx context.Context, authorID string, limit int) ([]*entities.Recipe, int64, error)

		AddFavorite(ctx context.Context, fav *entities.Favorite) error
		RemoveFavorite(ctx context.Context, userID, recipeID string) (int64, error)
		IsFavorited(ctx context.Context, userID, recipeID string) (bool, error)
		AddShoppingEntry(ctx context.Context, entry *entities.ShoppingEntry) error
		RemoveShoppingEntry(ctx context.Context, userID, recipeID string) (int64, error)
		IsInShoppingCart(ctx context.Context, userID, recipeID string) (bool, error)
		GetRelationRecipeIDs(ctx context.Context, userID string) (favorites map[string]bool, cart map[string]bool, err error)

		GetShoppingListTotals(ctx context.Context, userID string) ([]domain.IngredientTotal, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// CreateRecipe persists the recipe row, its ingredient lines and its tag
// rows inside one transaction so a reader never observes a partial
// aggregate.
func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient, tags []*entities.RecipeTag) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].RecipeID = recipe.ID
			lines[i].Position = i
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
		for i := range tags {
			tags[i].RecipeID = recipe.ID
		}
		return tx.Create(&tags).Error
	})
}

// ReplaceRecipe updates the recipe scalars and swaps both association sets
// atomically: clear-then-reinsert is never observably split.
func (r *recipeRepository) ReplaceRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient, tags []*entities.RecipeTag) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(recipe).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&entities.RecipeTag{}).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].RecipeID = recipe.ID
			lines[i].Position = i
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
		for i := range tags {
			tags[i].RecipeID = recipe.ID
		}
		return tx.Create(&tags).Error
	})
}

func (r *recipeRepository) DeleteRecipe(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Recipe{}).Error
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipe_ingredients.position")
		}).
		Preload("Ingredients.Ingredient").
		Preload("Tags.Tag").
		Where("id = ?", id).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string, page, limit int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64
	offset := (page - 1) * limit

	query := r.db.WithContext(ctx).Model(&entities.Recipe{})

	if filter.AuthorID != "" {
		query = query.Where("recipes.user_id = ?", filter.AuthorID)
	}

	if len(filter.TagSlugs) > 0 {
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs).
			Distinct("recipes.*")
	}

	// Membership filters are single subqueries against the viewer's
	// relation rows rather than a per-recipe existence check.
	if filter.IsFavorited != nil && viewerID != "" {
		sub := r.db.Model(&entities.Favorite{}).
			Select("recipe_id").
			Where("user_id = ?", viewerID)
		if *filter.IsFavorited == 1 {
			query = query.Where("recipes.id IN (?)", sub)
		} else {
			query = query.Where("recipes.id NOT IN (?)", sub)
		}
	}

	if filter.IsInShoppingCart != nil && viewerID != "" {
		sub := r.db.Model(&entities.ShoppingEntry{}).
			Select("recipe_id").
			Where("user_id = ?", viewerID)
		if *filter.IsInShoppingCart == 1 {
			query = query.Where("recipes.id IN (?)", sub)
		} else {
			query = query.Where("recipes.id NOT IN (?)", sub)
		}
	}

	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("User").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipe_ingredients.position")
		}).
		Preload("Ingredients.Ingredient").
		Preload("Tags.Tag").
		Offset(offset).
		Limit(limit).
		Order("recipes.created_at desc").
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

func (r *recipeRepository) GetRecipesByAuthor(ctx context.Context, authorID string, limit int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64

	if err := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Where("user_id = ?", authorID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).
		Where("user_id = ?", authorID).
		Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

func (r *recipeRepository) AddFavorite(ctx context.Context, fav *entities.Favorite) error {
	return r.db.WithContext(ctx).Create(fav).Error
}

func (r *recipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.Favorite{})
	return result.RowsAffected, result.Error
}

func (r *recipeRepository) IsFavorited(ctx context.Context, userID, recipeID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) AddShoppingEntry(ctx context.Context, entry *entities.ShoppingEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *recipeRepository) RemoveShoppingEntry(ctx context.Context, userID, recipeID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.ShoppingEntry{})
	return result.RowsAffected, result.Error
}

func (r *recipeRepository) IsInShoppingCart(ctx context.Context, userID, recipeID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.ShoppingEntry{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetRelationRecipeIDs loads the viewer's favorite and cart recipe-id sets
// in two queries so list rendering never checks membership row by row.
func (r *recipeRepository) GetRelationRecipeIDs(ctx context.Context, userID string) (map[string]bool, map[string]bool, error) {
	favorites := make(map[string]bool)
	cart := make(map[string]bool)
	if userID == "" {
		return favorites, cart, nil
	}

	var favoriteIDs []string
	if err := r.db.WithContext(ctx).
		Model(&entities.Favorite{}).
		Where("user_id = ?", userID).
		Pluck("recipe_id", &favoriteIDs).Error; err != nil {
		return nil, nil, err
	}
	for _, id := range favoriteIDs {
		favorites[id] = true
	}

	var cartIDs []string
	if err := r.db.WithContext(ctx).
		Model(&entities.ShoppingEntry{}).
		Where("user_id = ?", userID).
		Pluck("recipe_id", &cartIDs).Error; err != nil {
		return nil, nil, err
	}
	for _, id := range cartIDs {
		cart[id] = true
	}

	return favorites, cart, nil
}

// GetShoppingListTotals aggregates the user's whole cart in one grouped
// query: every ingredient line of every recipe in the cart, summed per
// ingredient. Ordering by name keeps the report stable between calls.
func (r *recipeRepository) GetShoppingListTotals(ctx context.Context, userID string) ([]domain.IngredientTotal, error) {
	var totals []domain.IngredientTotal
	if err := r.db.WithContext(ctx).
		Model(&entities.RecipeIngredient{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_entries ON shopping_entries.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_entries.user_id = ?", userID).
		Group("ingredients.id, ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}
