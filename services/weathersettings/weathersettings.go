package weathersettings

import (
	"context"
	"fmt"

	"github.com/samber/mo"

	"sentdebot/models"
)

// WeatherSettingsRepository is the persistence surface the service needs.
// Satisfied by db.PostgresWeatherSettingsRepository.
type WeatherSettingsRepository interface {
	GetWeatherSettings(ctx context.Context, userID string) (mo.Option[*models.WeatherSettings], error)
	UpsertWeatherSettings(ctx context.Context, settings *models.WeatherSettings) error
	DeleteWeatherSettings(ctx context.Context, userID string) (bool, error)
}

type WeatherSettingsService struct {
	settingsRepo WeatherSettingsRepository
}

func NewWeatherSettingsService(settingsRepo WeatherSettingsRepository) *WeatherSettingsService {
	return &WeatherSettingsService{settingsRepo: settingsRepo}
}

func (s *WeatherSettingsService) GetWeatherSettings(
	ctx context.Context,
	userID string,
) (mo.Option[*models.WeatherSettings], error) {
	if userID == "" {
		return mo.None[*models.WeatherSettings](), fmt.Errorf("user id cannot be empty")
	}
	return s.settingsRepo.GetWeatherSettings(ctx, userID)
}

func (s *WeatherSettingsService) SetWeatherSettings(ctx context.Context, userID, place string) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if place == "" {
		return fmt.Errorf("place cannot be empty")
	}

	settings := &models.WeatherSettings{UserID: userID, Place: place}
	if err := s.settingsRepo.UpsertWeatherSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to set weather settings: %w", err)
	}
	return nil
}

func (s *WeatherSettingsService) ClearWeatherSettings(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("user id cannot be empty")
	}
	return s.settingsRepo.DeleteWeatherSettings(ctx, userID)
}
