package domain

import "strings"

// ConfigDraft is the transient form state for creating or editing an
// instance. It only becomes an InstanceConfig after validation.
type ConfigDraft struct {
	Alias        string `json:"alias"`
	UserID       string `json:"userId,omitempty"`
	IsMainDevice bool   `json:"isMainDevice"`
	FacebookAds  bool   `json:"facebookAds"`
}

// SetMainDevice toggles the main-device flag. Turning it on clears any
// selected user: the main device is exempt from per-user assignment.
func (d *ConfigDraft) SetMainDevice(on bool) {
	d.IsMainDevice = on
	if on {
		d.UserID = ""
	}
}

// InstanceConfig is a validated create/edit payload.
type InstanceConfig struct {
	Alias        string `json:"alias"`
	UserID       string `json:"userId,omitempty"`
	IsMainDevice bool   `json:"isMainDevice"`
	FacebookAds  bool   `json:"facebookAds"`
}

// ValidateDraft checks the draft against the form rules, in order:
//  1. the alias must be non-empty after trimming
//  2. a non-main-device instance must have a user assigned
//  3. at most one main device may exist, unless the draft edits the
//     current main device itself
//
// The UI prevents some of these combinations interactively; they are
// re-checked here on every submit regardless.
func ValidateDraft(d ConfigDraft, existingMainDevice, editingMainDevice bool) (InstanceConfig, error) {
	alias := strings.TrimSpace(d.Alias)
	if alias == "" {
		return InstanceConfig{}, ErrAliasRequired()
	}

	if !d.IsMainDevice && strings.TrimSpace(d.UserID) == "" {
		return InstanceConfig{}, ErrUserRequired()
	}

	if d.IsMainDevice && existingMainDevice && !editingMainDevice {
		return InstanceConfig{}, ErrMainDeviceExists()
	}

	userID := d.UserID
	if d.IsMainDevice {
		userID = ""
	}

	return InstanceConfig{
		Alias:        alias,
		UserID:       userID,
		IsMainDevice: d.IsMainDevice,
		FacebookAds:  d.FacebookAds,
	}, nil
}
