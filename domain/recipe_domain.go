package domain

import (
	"errors"
)

var (
	MessageSuccessGetRecipes      = "success get recipes"
	MessageSuccessGetRecipeDetail = "success get recipe detail"
	MessageSuccessCreateRecipe    = "recipe created successfully"
	MessageSuccessUpdateRecipe    = "recipe updated successfully"
	MessageSuccessDeleteRecipe    = "recipe deleted successfully"
	MessageSuccessAddFavorite     = "recipe added to favorites"
	MessageSuccessRemoveFavorite  = "recipe removed from favorites"
	MessageSuccessAddToCart       = "recipe added to shopping cart"
	MessageSuccessRemoveFromCart  = "recipe removed from shopping cart"

	MessageFailedGetRecipes      = "failed to get recipes"
	MessageFailedGetRecipeDetail = "failed to get recipe detail"
	MessageFailedCreateRecipe    = "failed to create recipe"
	MessageFailedUpdateRecipe    = "failed to update recipe"
	MessageFailedDeleteRecipe    = "failed to delete recipe"
	MessageFailedAddFavorite     = "failed to add recipe to favorites"
	MessageFailedRemoveFavorite  = "failed to remove recipe from favorites"
	MessageFailedAddToCart       = "failed to add recipe to shopping cart"
	MessageFailedRemoveFromCart  = "failed to remove recipe from shopping cart"
	MessageFailedDownloadCart    = "failed to download shopping cart"

	ErrRecipeNotFound           = errors.New("recipe not found")
	ErrUnauthorizedRecipeAccess = errors.New("unauthorized access to recipe")
	ErrNoIngredients            = errors.New("cannot save a recipe without ingredients")
	ErrNoTags                   = errors.New("cannot save a recipe without tags")
	ErrDuplicateIngredient      = errors.New("cannot add the same ingredient twice")
	ErrDuplicateTag             = errors.New("cannot add the same tag twice")
	ErrUnknownIngredient        = errors.New("cannot add a nonexistent ingredient")
	ErrUnknownTag               = errors.New("cannot add a nonexistent tag")
	ErrInvalidAmount            = errors.New("ingredient amount must be positive")
	ErrInvalidCookingTime       = errors.New("cooking time must be positive")
	ErrInvalidImagePayload      = errors.New("invalid image payload")
	ErrAlreadyFavorited         = errors.New("recipe already in favorites")
	ErrNotFavorited             = errors.New("recipe is not in favorites")
	ErrAlreadyInCart            = errors.New("recipe already in shopping cart")
	ErrNotInCart                = errors.New("recipe is not in shopping cart")
)

// ShoppingListFileName and ShoppingListHeader shape the downloadable report.
const (
	ShoppingListFileName    = "shopping_cart.txt"
	ShoppingListContentType = "text/plain"
	ShoppingListHeader      = "Shopping list:"
)

type (
	IngredientSpec struct {
		ID     string `json:"id" validate:"required,uuid"`
		Amount int    `json:"amount" validate:"required,min=1"`
	}

	CreateRecipeRequest struct {
		Name        string           `json:"name" validate:"required,max=256"`
		Text        string           `json:"text" validate:"required"`
		CookingTime int              `json:"cooking_time" validate:"required,min=1"`
		Image       string           `json:"image" validate:"required"`
		Tags        []string         `json:"tags" validate:"required,min=1,dive,uuid"`
		Ingredients []IngredientSpec `json:"ingredients" validate:"required,min=1,dive"`
	}

	// UpdateRecipeRequest carries full-replace semantics: tags and
	// ingredients are required and entirely replace the stored sets.
	// Image is the only optional field; empty keeps the current one.
	UpdateRecipeRequest struct {
		Name        string           `json:"name" validate:"required,max=256"`
		Text        string           `json:"text" validate:"required"`
		CookingTime int              `json:"cooking_time" validate:"required,min=1"`
		Image       string           `json:"image" validate:"omitempty"`
		Tags        []string         `json:"tags" validate:"required,min=1,dive,uuid"`
		Ingredients []IngredientSpec `json:"ingredients" validate:"required,min=1,dive"`
	}

	RecipeIngredientResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeResponse struct {
		ID               string                     `json:"id"`
		Author           UserResponse               `json:"author"`
		Name             string                     `json:"name"`
		Text             string                     `json:"text"`
		CookingTime      int                        `json:"cooking_time"`
		Image            string                     `json:"image,omitempty"`
		Tags             []TagResponse              `json:"tags"`
		Ingredients      []RecipeIngredientResponse `json:"ingredients"`
		IsFavorited      bool                       `json:"is_favorited"`
		IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	}

	// RecipeShortResponse is the summary returned by favorite and
	// shopping cart adds, and inside subscription views.
	RecipeShortResponse struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Image       string `json:"image,omitempty"`
		CookingTime int    `json:"cooking_time"`
	}

	// RecipeFilter carries the list query parameters. IsFavorited and
	// IsInShoppingCart are tri-state: nil means the filter is absent.
	RecipeFilter struct {
		AuthorID         string
		TagSlugs         []string
		IsFavorited      *int
		IsInShoppingCart *int
	}

	// IngredientTotal is one aggregated shopping list row: a distinct
	// ingredient with amounts summed across every recipe in the cart.
	IngredientTotal struct {
		Name            string
		MeasurementUnit string
		Total           int
	}

	ShoppingListFile struct {
		Content     []byte
		FileName    string
		ContentType string
	}
)
