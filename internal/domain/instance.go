package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultNamePrefix is the prefix used when deriving instance names.
const DefaultNamePrefix = "infragrowth-whatsapp"

// ConnectionStatus is the connection state reported by the bridge backend.
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusOpen         ConnectionStatus = "open"
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusClosed       ConnectionStatus = "closed"
	StatusPending      ConnectionStatus = ""
)

// IsConnected reports whether the status means the WhatsApp account is linked.
func (s ConnectionStatus) IsConnected() bool {
	switch ConnectionStatus(strings.ToLower(string(s))) {
	case StatusConnected, StatusOpen:
		return true
	default:
		return false
	}
}

// IsDisconnected reports whether the backend considers the instance offline.
func (s ConnectionStatus) IsDisconnected() bool {
	switch ConnectionStatus(strings.ToLower(string(s))) {
	case StatusDisconnected, StatusClosed:
		return true
	default:
		return false
	}
}

// DisplayText returns the operator-facing label for the status.
func (s ConnectionStatus) DisplayText() string {
	switch {
	case s.IsConnected():
		return "Conectado"
	case s.IsDisconnected():
		return "Desconectado"
	default:
		return "Pendiente"
	}
}

// Instance is a single WhatsApp-bridge connection slot belonging to a tenant.
// It mirrors the shape returned by the ver-instancias endpoint.
type Instance struct {
	ID               string           `json:"id"`
	InstanceID       int64            `json:"instance_id"`
	InstanceName     string           `json:"instance_name"`
	InstanceAlias    string           `json:"instance_alias"`
	MainDevice       bool             `json:"main_device"`
	FBAds            bool             `json:"fb_ads"`
	APIKey           string           `json:"apikey"`
	LocationID       string           `json:"location_id,omitempty"`
	Token            string           `json:"token,omitempty"`
	ConnectionStatus ConnectionStatus `json:"connectionStatus,omitempty"`
	QRCode           string           `json:"qrcode,omitempty"`
	UserID           string           `json:"userId,omitempty"`
	OwnerJID         string           `json:"ownerJid,omitempty"`
	ProfilePicURL    string           `json:"profilePicUrl,omitempty"`
}

// IsConnected reports whether the instance's WhatsApp account is linked.
func (i *Instance) IsConnected() bool {
	return i.ConnectionStatus.IsConnected()
}

// PhoneNumber extracts the phone number from the owner JID.
func (i *Instance) PhoneNumber() string {
	if i.OwnerJID == "" {
		return ""
	}
	return strings.SplitN(i.OwnerJID, "@", 2)[0]
}

// User is read-only reference data for the assignment dropdown.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// InstanceDetail is the full configuration of one instance as returned
// by the ver-instancia endpoint; it seeds the edit form.
type InstanceDetail struct {
	InstanceID    int64  `json:"instance_id"`
	InstanceName  string `json:"instance_name"`
	InstanceAlias string `json:"instance_alias"`
	APIKey        string `json:"apikey"`
	Token         string `json:"token,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	LocationID    string `json:"locationId"`
	UserName      string `json:"user_name,omitempty"`
	UserEmail     string `json:"user_email,omitempty"`
	UserPhone     string `json:"user_phone,omitempty"`
	MainDevice    bool   `json:"main_device"`
	FBAds         bool   `json:"fb_ads"`
}

// InstanceProfile is the live profile of a connected instance.
type InstanceProfile struct {
	Name          string `json:"name"`
	Number        string `json:"number"`
	Photo         string `json:"photo"`
	OwnerJID      string `json:"ownerJid,omitempty"`
	ProfilePicURL string `json:"profilePicUrl,omitempty"`
}

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// NextDefaultName derives the next default instance name: prefix plus one
// more than the highest trailing numeric suffix among the existing names.
// Names without a numeric suffix count as 0; an empty registry yields 1.
func NextDefaultName(prefix string, instances []Instance) string {
	max := 0
	for _, inst := range instances {
		match := trailingDigits.FindString(inst.InstanceName)
		if match == "" {
			continue
		}
		n, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return prefix + strconv.Itoa(max+1)
}
