// Package policy decides who may do what with which resource.
//
// Decisions come from two static tables. Action rules gate a request before
// any record is loaded; object rules run afterwards against the resolved
// record and only for mutating actions. Read access to individual records is
// never decided here: it is narrowed by the visibility scopes the repository
// pushes into its queries (see SeesHidden and SelfOnly).
package policy

import (
	"github.com/Baaaki/blog-platform/internal/apperr"
	"github.com/google/uuid"
)

type Resource string

const (
	ResourceUser     Resource = "user"
	ResourcePost     Resource = "post"
	ResourceCategory Resource = "category"
	ResourceTag      Resource = "tag"
	ResourceComment  Resource = "comment"
)

type Action string

const (
	ActionList          Action = "list"
	ActionRetrieve      Action = "retrieve"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"
)

// ReadOnly reports whether the action only enumerates or fetches.
func (a Action) ReadOnly() bool {
	return a == ActionList || a == ActionRetrieve
}

// Owned is implemented by records that have an owning user.
type Owned interface {
	OwnerID() uuid.UUID
}

// Rule is an action-level predicate.
type Rule func(v Viewer) bool

// ObjectRule is evaluated against the owner of a resolved record.
type ObjectRule func(v Viewer, owner uuid.UUID) bool

type ruleKey struct {
	resource Resource
	action   Action
}

func anyone(Viewer) bool          { return true }
func authenticated(v Viewer) bool { return v.Authenticated }
func admin(v Viewer) bool         { return v.IsAdmin() }
func blogger(v Viewer) bool       { return v.IsBlogger() }

func adminOrOwner(v Viewer, owner uuid.UUID) bool {
	return v.IsAdmin() || (v.Authenticated && v.UserID == owner)
}

var actionRules = map[ruleKey]Rule{
	// Non-admins only ever see their own user row, so authentication is enough here.
	{ResourceUser, ActionList}:          authenticated,
	{ResourceUser, ActionRetrieve}:      authenticated,
	{ResourceUser, ActionCreate}:        admin,
	{ResourceUser, ActionUpdate}:        authenticated,
	{ResourceUser, ActionPartialUpdate}: authenticated,
	{ResourceUser, ActionDestroy}:       authenticated,

	{ResourcePost, ActionList}:          anyone,
	{ResourcePost, ActionRetrieve}:      anyone,
	{ResourcePost, ActionCreate}:        blogger,
	{ResourcePost, ActionUpdate}:        authenticated,
	{ResourcePost, ActionPartialUpdate}: authenticated,
	{ResourcePost, ActionDestroy}:       authenticated,

	{ResourceCategory, ActionList}:          anyone,
	{ResourceCategory, ActionRetrieve}:      anyone,
	{ResourceCategory, ActionCreate}:        admin,
	{ResourceCategory, ActionUpdate}:        admin,
	{ResourceCategory, ActionPartialUpdate}: admin,
	{ResourceCategory, ActionDestroy}:       admin,

	{ResourceTag, ActionList}:          anyone,
	{ResourceTag, ActionRetrieve}:      anyone,
	{ResourceTag, ActionCreate}:        admin,
	{ResourceTag, ActionUpdate}:        admin,
	{ResourceTag, ActionPartialUpdate}: admin,
	{ResourceTag, ActionDestroy}:       admin,

	// Commenting needs an account but not the blogger capability.
	{ResourceComment, ActionList}:          anyone,
	{ResourceComment, ActionRetrieve}:      anyone,
	{ResourceComment, ActionCreate}:        authenticated,
	{ResourceComment, ActionUpdate}:        authenticated,
	{ResourceComment, ActionPartialUpdate}: authenticated,
	{ResourceComment, ActionDestroy}:       authenticated,
}

var objectRules = map[ruleKey]ObjectRule{
	{ResourceUser, ActionUpdate}:        adminOrOwner,
	{ResourceUser, ActionPartialUpdate}: adminOrOwner,
	{ResourceUser, ActionDestroy}:       adminOrOwner,

	{ResourcePost, ActionUpdate}:        adminOrOwner,
	{ResourcePost, ActionPartialUpdate}: adminOrOwner,
	{ResourcePost, ActionDestroy}:       adminOrOwner,

	{ResourceComment, ActionUpdate}:        adminOrOwner,
	{ResourceComment, ActionPartialUpdate}: adminOrOwner,
	{ResourceComment, ActionDestroy}:       adminOrOwner,
}

// Allowed evaluates the action-level rule. Unknown pairs are denied.
func Allowed(v Viewer, res Resource, act Action) bool {
	rule, ok := actionRules[ruleKey{res, act}]
	if !ok {
		return false
	}
	return rule(v)
}

// Authorize is Allowed as an error.
func Authorize(v Viewer, res Resource, act Action) error {
	if !Allowed(v, res, act) {
		return apperr.ErrUnauthorizedAccess
	}
	return nil
}

// AllowedObject evaluates the object-level rule for a resolved record.
// Read-only actions and pairs without an object rule always pass.
func AllowedObject(v Viewer, res Resource, act Action, obj Owned) bool {
	if act.ReadOnly() {
		return true
	}
	rule, ok := objectRules[ruleKey{res, act}]
	if !ok {
		return true
	}
	return rule(v, obj.OwnerID())
}

// AuthorizeObject is AllowedObject as an error.
func AuthorizeObject(v Viewer, res Resource, act Action, obj Owned) error {
	if !AllowedObject(v, res, act, obj) {
		return apperr.ErrUnauthorizedAccess
	}
	return nil
}

// SeesHidden reports whether hidden rows of res are visible to v.
// Only posts and comments carry a hidden flag.
func SeesHidden(v Viewer, res Resource) bool {
	switch res {
	case ResourcePost, ResourceComment:
		return v.IsAdmin()
	default:
		return true
	}
}

// SelfOnly reports whether v's view of the user collection is restricted to
// its own row.
func SelfOnly(v Viewer) bool {
	return !v.IsAdmin()
}
