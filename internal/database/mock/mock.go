package mock

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mealshare/mealshare/internal/database"
	"github.com/samber/lo"
)

var _ database.DB = (*MockDB)(nil)

// MockDB is a mock implementation of database.DB for testing.
type MockDB struct {
	mu sync.RWMutex

	// User storage
	users      map[string]*database.User
	nextUserID uint

	// Recipe storage, in insertion order
	recipes []*database.Recipe

	// Saved recipe storage keyed by username, in insertion order
	saved       map[string][]database.SavedRecipe
	nextSavedID uint

	subscribers []database.Subscriber

	// Error simulation
	CreateUserError        error
	GetUserByUsernameError error
	UpdateUserError        error
	DeleteUserError        error
	CreateRecipeError      error
	GetRecipeByIDError     error
	GetRecipesError        error
	UpdateRecipeError      error
	DeleteRecipeError      error
	SaveRecipeError        error
	RemoveSavedRecipeError error
	GetSavedRecipesError   error
	CreateSubscriberError  error
	GetSubscribersError    error
	GetStatsError          error
	CloseCalled            bool
}

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	m := &MockDB{}
	m.Reset()
	return m
}

// Reset clears all data and errors from the mock database.
func (m *MockDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[string]*database.User)
	m.nextUserID = 1
	m.recipes = nil
	m.saved = make(map[string][]database.SavedRecipe)
	m.nextSavedID = 1
	m.subscribers = nil

	m.CreateUserError = nil
	m.GetUserByUsernameError = nil
	m.UpdateUserError = nil
	m.DeleteUserError = nil
	m.CreateRecipeError = nil
	m.GetRecipeByIDError = nil
	m.GetRecipesError = nil
	m.UpdateRecipeError = nil
	m.DeleteRecipeError = nil
	m.SaveRecipeError = nil
	m.RemoveSavedRecipeError = nil
	m.GetSavedRecipesError = nil
	m.CreateSubscriberError = nil
	m.GetSubscribersError = nil
	m.GetStatsError = nil
	m.CloseCalled = false
}

// User operations

func (m *MockDB) CreateUser(ctx context.Context, user *database.User) error {
	if m.CreateUserError != nil {
		return m.CreateUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Username]; ok {
		return database.ErrDuplicateUsername
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return database.ErrDuplicateEmail
		}
	}

	now := time.Now()
	user.ID = m.nextUserID
	m.nextUserID++
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	m.users[user.Username] = &stored
	return nil
}

func (m *MockDB) GetUserByUsername(ctx context.Context, username string) (*database.User, error) {
	if m.GetUserByUsernameError != nil {
		return nil, m.GetUserByUsernameError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[username]
	if !ok {
		return nil, database.ErrNotFound
	}
	u := *user
	return &u, nil
}

func (m *MockDB) UsernameExists(ctx context.Context, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.users[username]
	return ok, nil
}

func (m *MockDB) EmailExists(ctx context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockDB) UpdateUserPassword(ctx context.Context, username, passwordHash string) error {
	return m.updateUser(username, func(u *database.User) { u.PasswordHash = passwordHash })
}

func (m *MockDB) UpdateUserProfileImage(ctx context.Context, username, imageURL string) error {
	return m.updateUser(username, func(u *database.User) { u.ProfileImage = imageURL })
}

func (m *MockDB) updateUser(username string, fn func(*database.User)) error {
	if m.UpdateUserError != nil {
		return m.UpdateUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[username]
	if !ok {
		return database.ErrNotFound
	}
	fn(user)
	user.UpdatedAt = time.Now()
	return nil
}

func (m *MockDB) DeleteUser(ctx context.Context, username string) (int64, error) {
	if m.DeleteUserError != nil {
		return 0, m.DeleteUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[username]; !ok {
		return 0, database.ErrNotFound
	}
	delete(m.users, username)
	delete(m.saved, username)

	before := len(m.recipes)
	m.recipes = lo.Reject(m.recipes, func(r *database.Recipe, _ int) bool {
		return r.CreatedBy == username
	})
	return int64(before - len(m.recipes)), nil
}

// Recipe operations

func (m *MockDB) CreateRecipe(ctx context.Context, recipe *database.Recipe) error {
	if m.CreateRecipeError != nil {
		return m.CreateRecipeError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if recipe.ID == "" {
		recipe.ID = uuid.NewString()
	}
	now := time.Now()
	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = now
	}
	recipe.UpdatedAt = now

	stored := *recipe
	m.recipes = append(m.recipes, &stored)
	return nil
}

func (m *MockDB) GetRecipeByID(ctx context.Context, id string) (*database.Recipe, error) {
	if m.GetRecipeByIDError != nil {
		return nil, m.GetRecipeByIDError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	recipe, ok := lo.Find(m.recipes, func(r *database.Recipe) bool { return r.ID == id })
	if !ok {
		return nil, database.ErrNotFound
	}
	r := *recipe
	return &r, nil
}

func (m *MockDB) GetRecipes(ctx context.Context) ([]database.Recipe, error) {
	return m.filterRecipes(func(*database.Recipe) bool { return true })
}

func (m *MockDB) GetRecipesByMeal(ctx context.Context, meal database.MealType) ([]database.Recipe, error) {
	return m.filterRecipes(func(r *database.Recipe) bool { return r.Meal == meal })
}

func (m *MockDB) GetRecipesByCreator(ctx context.Context, username string) ([]database.Recipe, error) {
	return m.filterRecipes(func(r *database.Recipe) bool { return r.CreatedBy == username })
}

func (m *MockDB) GetRecipesSince(ctx context.Context, since time.Time) ([]database.Recipe, error) {
	return m.filterRecipes(func(r *database.Recipe) bool { return !r.CreatedAt.Before(since) })
}

func (m *MockDB) SearchRecipes(ctx context.Context, query string) ([]database.Recipe, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return m.GetRecipes(ctx)
	}
	return m.filterRecipes(func(r *database.Recipe) bool {
		haystack := strings.ToLower(r.Name + "\n" + r.Description + "\n" + r.Ingredients)
		return lo.SomeBy(terms, func(term string) bool { return strings.Contains(haystack, term) })
	})
}

// filterRecipes returns copies of matching recipes, newest first.
func (m *MockDB) filterRecipes(match func(*database.Recipe) bool) ([]database.Recipe, error) {
	if m.GetRecipesError != nil {
		return nil, m.GetRecipesError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var recipes []database.Recipe
	for _, r := range slices.Backward(m.recipes) {
		if match(r) {
			recipes = append(recipes, *r)
		}
	}
	return recipes, nil
}

func (m *MockDB) UpdateRecipe(ctx context.Context, recipe *database.Recipe) error {
	if m.UpdateRecipeError != nil {
		return m.UpdateRecipeError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := lo.Find(m.recipes, func(r *database.Recipe) bool { return r.ID == recipe.ID })
	if !ok {
		return database.ErrNotFound
	}
	stored.Meal = recipe.Meal
	stored.Name = recipe.Name
	stored.Ingredients = recipe.Ingredients
	stored.Description = recipe.Description
	stored.Recommendation = recipe.Recommendation
	stored.Yield = recipe.Yield
	stored.ActiveTime = recipe.ActiveTime
	stored.TotalTime = recipe.TotalTime
	stored.ImageURL = recipe.ImageURL
	stored.Method = recipe.Method
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *MockDB) DeleteRecipe(ctx context.Context, id string) error {
	if m.DeleteRecipeError != nil {
		return m.DeleteRecipeError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, idx, ok := lo.FindIndexOf(m.recipes, func(r *database.Recipe) bool { return r.ID == id })
	if !ok {
		return database.ErrNotFound
	}
	m.recipes = slices.Delete(m.recipes, idx, idx+1)
	return nil
}

// Saved recipe operations

func (m *MockDB) SaveRecipe(ctx context.Context, username, recipeID string, snapshot database.RecipeSnapshot) (bool, error) {
	if m.SaveRecipeError != nil {
		return false, m.SaveRecipeError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[username]
	if !ok {
		return false, database.ErrNotFound
	}
	if lo.ContainsBy(m.saved[username], func(s database.SavedRecipe) bool { return s.RecipeID == recipeID }) {
		return false, nil
	}

	m.saved[username] = append(m.saved[username], database.SavedRecipe{
		ID:       m.nextSavedID,
		SavedAt:  time.Now(),
		UserID:   user.ID,
		RecipeID: recipeID,
		Recipe:   snapshot,
	})
	m.nextSavedID++
	return true, nil
}

func (m *MockDB) RemoveSavedRecipe(ctx context.Context, username, recipeID string) (bool, error) {
	if m.RemoveSavedRecipeError != nil {
		return false, m.RemoveSavedRecipeError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.saved[username])
	m.saved[username] = lo.Reject(m.saved[username], func(s database.SavedRecipe, _ int) bool {
		return s.RecipeID == recipeID
	})
	return len(m.saved[username]) < before, nil
}

func (m *MockDB) GetSavedRecipes(ctx context.Context, username string) ([]database.SavedRecipe, error) {
	if m.GetSavedRecipesError != nil {
		return nil, m.GetSavedRecipesError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	saved := slices.Clone(m.saved[username])
	slices.Reverse(saved)
	return saved, nil
}

// Subscriber operations

func (m *MockDB) CreateSubscriber(ctx context.Context, email string) (bool, error) {
	if m.CreateSubscriberError != nil {
		return false, m.CreateSubscriberError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if lo.ContainsBy(m.subscribers, func(s database.Subscriber) bool { return s.Email == email }) {
		return false, nil
	}
	m.subscribers = append(m.subscribers, database.Subscriber{
		ID:        uint(len(m.subscribers) + 1),
		CreatedAt: time.Now(),
		Email:     email,
	})
	return true, nil
}

func (m *MockDB) GetSubscribers(ctx context.Context) ([]database.Subscriber, error) {
	if m.GetSubscribersError != nil {
		return nil, m.GetSubscribersError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.subscribers), nil
}

func (m *MockDB) GetStats(ctx context.Context) (*database.Stats, error) {
	if m.GetStatsError != nil {
		return nil, m.GetStatsError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &database.Stats{
		Users:         int64(len(m.users)),
		Recipes:       int64(len(m.recipes)),
		Subscribers:   int64(len(m.subscribers)),
		RecipesByMeal: make(map[database.MealType]int64, len(database.MealTypes)),
	}
	for _, saved := range m.saved {
		stats.SavedRecipes += int64(len(saved))
	}
	for _, meal := range database.MealTypes {
		stats.RecipesByMeal[meal] = int64(lo.CountBy(m.recipes, func(r *database.Recipe) bool { return r.Meal == meal }))
	}
	return stats, nil
}

func (m *MockDB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return nil
}

// SetRecipeCreatedAt overrides the creation time of a stored recipe.
func (m *MockDB) SetRecipeCreatedAt(id string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := lo.Find(m.recipes, func(r *database.Recipe) bool { return r.ID == id }); ok {
		r.CreatedAt = t
	}
}
