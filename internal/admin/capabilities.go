package admin

// Capabilities granted by the content platform's built-in roles.
const (
	CapRead          = "read"
	CapEditPosts     = "edit_posts"
	CapPublishPosts  = "publish_posts"
	CapEditOthers    = "edit_others_posts"
	CapManageOptions = "manage_options"
	CapListUsers     = "list_users"
)

var roleCapabilities = map[string][]string{
	"administrator": {CapRead, CapEditPosts, CapPublishPosts, CapEditOthers, CapManageOptions, CapListUsers},
	"editor":        {CapRead, CapEditPosts, CapPublishPosts, CapEditOthers},
	"author":        {CapRead, CapEditPosts, CapPublishPosts},
	"contributor":   {CapRead, CapEditPosts},
	"subscriber":    {CapRead},
}

// Can reports whether role holds capability. Unknown roles hold nothing.
func Can(role, capability string) bool {
	for _, c := range roleCapabilities[role] {
		if c == capability {
			return true
		}
	}
	return false
}
