package pg

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"posnotif/internal/domain"
)

const whatsappSettingsKey = "whatsappConfig"

// PlatformDeliverySettings reads the global settings document. A missing
// document is not an error and yields empty settings.
func (s *Store) PlatformDeliverySettings(ctx context.Context) (domain.DeliverySettings, bool, error) {
	var raw []byte
	err := s.DB.QueryRow(ctx, `SELECT value FROM app_settings WHERE key=$1`, whatsappSettingsKey).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DeliverySettings{}, false, nil
		}
		return domain.DeliverySettings{}, false, err
	}
	var out domain.DeliverySettings
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.DeliverySettings{}, false, err
	}
	return out, true, nil
}

func (s *Store) SavePlatformDeliverySettings(ctx context.Context, in domain.DeliverySettings) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
		INSERT INTO app_settings (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, whatsappSettingsKey, b)
	return err
}

func (s *Store) StoreDeliverySettings(ctx context.Context, storeID string) (domain.DeliverySettings, bool, error) {
	var out domain.DeliverySettings
	err := s.DB.QueryRow(ctx, `
		SELECT COALESCE(device_id,''), COALESCE(admin_group,'')
		FROM store_notification_settings WHERE store_id=$1
	`, storeID).Scan(&out.DeviceID, &out.AdminGroup)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DeliverySettings{}, false, nil
		}
		return domain.DeliverySettings{}, false, err
	}
	return out, true, nil
}
