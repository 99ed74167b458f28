package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxDisplayNameLength, profil görünen adının maksimum karakter uzunluğu.
const MaxDisplayNameLength = 256

// Profile, bir kullanıcının gösterilebilir kimliği (identity resolver çıktısı).
type Profile struct {
	UserID      string  `json:"user_id"`
	DisplayName *string `json:"display_name"` // nil = ayarlanmamış
	AvatarURL   *string `json:"avatar_url"`
}

// StandInProfile, çözümlenemeyen kullanıcı için geçerli bir yer tutucu profil döner.
// Görünen ad olarak kullanıcı ID'si kullanılır.
func StandInProfile(userID string) Profile {
	name := userID
	return Profile{UserID: userID, DisplayName: &name}
}

// Name, UI'da gösterilecek adı döner: display name yoksa user ID.
func (p Profile) Name() string {
	if p.DisplayName != nil && *p.DisplayName != "" {
		return *p.DisplayName
	}
	return p.UserID
}

// UpdateProfileRequest, sync katmanından gelen profil güncellemesi.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayname"`
	AvatarURL   *string `json:"avatar_url"`
}

// Validate, profil güncellemesini kontrol eder.
func (r *UpdateProfileRequest) Validate() error {
	if r.DisplayName != nil {
		trimmed := strings.TrimSpace(*r.DisplayName)
		if utf8.RuneCountInString(trimmed) > MaxDisplayNameLength {
			return fmt.Errorf("displayname must be at most %d characters", MaxDisplayNameLength)
		}
		r.DisplayName = &trimmed
	}
	return nil
}
