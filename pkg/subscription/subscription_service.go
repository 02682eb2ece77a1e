package subscription

import (
	"context"
	"errors"

	"Plateful-Backend/domain"
	"Plateful-Backend/entities"
	"Plateful-Backend/pkg/recipe"
	"Plateful-Backend/pkg/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	SubscriptionService interface {
		Subscribe(ctx context.Context, userID, targetID string, recipesLimit int) (domain.SubscriptionResponse, error)
		Unsubscribe(ctx context.Context, userID, targetID string) error
		GetSubscriptions(ctx context.Context, userID string, recipesLimit, page, limit int) ([]domain.SubscriptionResponse, int64, error)
	}

	subscriptionService struct {
		subscriptionRepository SubscriptionRepository
		userRepository         user.UserRepository
		recipeRepository       recipe.RecipeRepository
	}
)

func NewSubscriptionService(subscriptionRepository SubscriptionRepository, userRepository user.UserRepository, recipeRepository recipe.RecipeRepository) SubscriptionService {
	return &subscriptionService{
		subscriptionRepository: subscriptionRepository,
		userRepository:         userRepository,
		recipeRepository:       recipeRepository,
	}
}

func (s *subscriptionService) Subscribe(ctx context.Context, userID, targetID string, recipesLimit int) (domain.SubscriptionResponse, error) {
	if userID == targetID {
		return domain.SubscriptionResponse{}, domain.ErrSelfSubscription
	}

	target, err := s.userRepository.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SubscriptionResponse{}, domain.ErrUserNotFound
		}
		return domain.SubscriptionResponse{}, err
	}

	exists, err := s.subscriptionRepository.SubscriptionExists(ctx, userID, targetID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if exists {
		return domain.SubscriptionResponse{}, domain.ErrAlreadySubscribed
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.SubscriptionResponse{}, domain.ErrParseUUID
	}

	sub := &entities.Subscription{
		ID:           uuid.New(),
		UserID:       userUUID,
		SubscriberID: target.ID,
	}
	if err := s.subscriptionRepository.CreateSubscription(ctx, sub); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.SubscriptionResponse{}, domain.ErrAlreadySubscribed
		}
		return domain.SubscriptionResponse{}, err
	}

	return s.buildSubscriptionResponse(ctx, target, recipesLimit)
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, userID, targetID string) error {
	if _, err := s.userRepository.GetUserByID(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	affected, err := s.subscriptionRepository.RemoveSubscription(ctx, userID, targetID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotSubscribed
	}
	return nil
}

func (s *subscriptionService) GetSubscriptions(ctx context.Context, userID string, recipesLimit, page, limit int) ([]domain.SubscriptionResponse, int64, error) {
	subs, count, err := s.subscriptionRepository.GetSubscriptions(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	response := make([]domain.SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		if sub.Subscriber == nil {
			continue
		}
		view, err := s.buildSubscriptionResponse(ctx, sub.Subscriber, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		response = append(response, view)
	}

	return response, count, nil
}

func (s *subscriptionService) buildSubscriptionResponse(ctx context.Context, target *entities.User, recipesLimit int) (domain.SubscriptionResponse, error) {
	recipes, recipesCount, err := s.recipeRepository.GetRecipesByAuthor(ctx, target.ID.String(), recipesLimit)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	shorts := make([]domain.RecipeShortResponse, 0, len(recipes))
	for _, rec := range recipes {
		shorts = append(shorts, domain.RecipeShortResponse{
			ID:          rec.ID.String(),
			Name:        rec.Name,
			Image:       rec.ImageURL,
			CookingTime: rec.CookingTime,
		})
	}

	return domain.SubscriptionResponse{
		ID:           target.ID.String(),
		Email:        target.Email,
		Username:     target.Username,
		FirstName:    target.FirstName,
		LastName:     target.LastName,
		IsSubscribed: true,
		Recipes:      shorts,
		RecipesCount: recipesCount,
	}, nil
}
