package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"resephub/internal/storage"
	"resephub/pkg/models"
)

// SaveSnapshot overwrites both cached collections.
func SaveSnapshot(ctx context.Context, kv storage.KV, recipes []models.Recipe, categories []models.Category) error {
	rb, err := json.Marshal(recipes)
	if err != nil {
		return fmt.Errorf("marshal recipes: %w", err)
	}
	cb, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	if err := kv.Set(ctx, storage.KeyRecipes, rb); err != nil {
		return fmt.Errorf("save recipes: %w", err)
	}
	if err := kv.Set(ctx, storage.KeyCategories, cb); err != nil {
		return fmt.Errorf("save categories: %w", err)
	}
	return nil
}

// LoadSnapshot reads the cached collections. A missing key yields a nil
// slice for that collection.
func LoadSnapshot(ctx context.Context, kv storage.KV) ([]models.Recipe, []models.Category, error) {
	var recipes []models.Recipe
	if err := readJSON(ctx, kv, storage.KeyRecipes, &recipes); err != nil {
		return nil, nil, err
	}
	var categories []models.Category
	if err := readJSON(ctx, kv, storage.KeyCategories, &categories); err != nil {
		return nil, nil, err
	}

	for i := range recipes {
		if recipes[i].Ingredients == nil {
			recipes[i].Ingredients = []string{}
		}
		if recipes[i].Steps == nil {
			recipes[i].Steps = []string{}
		}
	}
	return recipes, categories, nil
}

func readJSON(ctx context.Context, kv storage.KV, key string, dst any) error {
	b, err := kv.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	return nil
}
