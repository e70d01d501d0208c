package entity

// Avatar is one entry in the fixed catalog members pick from.
type Avatar struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// DefaultAvatarID is assigned when signup omits an avatar.
const DefaultAvatarID = "avatar1"

var avatarCatalog = []Avatar{
	{ID: "avatar1", Name: "Guardian Shield", Icon: "🛡️"},
	{ID: "avatar2", Name: "Cyber Warrior", Icon: "⚔️"},
	{ID: "avatar3", Name: "Digital Ninja", Icon: "🥷"},
	{ID: "avatar4", Name: "Code Master", Icon: "💻"},
	{ID: "avatar5", Name: "Security Expert", Icon: "🔒"},
	{ID: "avatar6", Name: "Network Guardian", Icon: "🌐"},
	{ID: "avatar7", Name: "Data Protector", Icon: "🔐"},
	{ID: "avatar8", Name: "Cyber Defender", Icon: "🛡️"},
	{ID: "avatar9", Name: "Tech Guardian", Icon: "⚡"},
	{ID: "avatar10", Name: "Digital Hero", Icon: "🦸"},
	{ID: "avatar11", Name: "Code Guardian", Icon: "👩‍💻"},
	{ID: "avatar12", Name: "Security Queen", Icon: "👑"},
}

// Avatars returns the catalog in display order.
func Avatars() []Avatar {
	out := make([]Avatar, len(avatarCatalog))
	copy(out, avatarCatalog)
	return out
}

// ValidAvatarID reports whether id exists in the catalog.
func ValidAvatarID(id string) bool {
	for _, a := range avatarCatalog {
		if a.ID == id {
			return true
		}
	}
	return false
}
