package entity

import "context"

const (
	ProjectTypeMamad        = "mamad"
	ProjectTypePrivateHome  = "private_home"
	ProjectTypeRenovation   = "renovation"
	ProjectTypeArchitecture = "architecture"

	// DefaultProjectTypeKey is used when nothing else identifies the project.
	DefaultProjectTypeKey = ProjectTypeRenovation
)

type ProjectType struct {
	ID            int    `json:"id"`
	Key           string `json:"key"`
	DisplayNameHe string `json:"display_name_he"`
	IsActive      bool   `json:"is_active"`
}

// DefaultProjectTypes is the seed shared by the SQL schema and the memory store.
var DefaultProjectTypes = []ProjectType{
	{ID: 1, Key: ProjectTypeMamad, DisplayNameHe: "ממ״ד", IsActive: true},
	{ID: 2, Key: ProjectTypePrivateHome, DisplayNameHe: "בנייה פרטית", IsActive: true},
	{ID: 3, Key: ProjectTypeRenovation, DisplayNameHe: "עבודות גמר", IsActive: true},
	{ID: 4, Key: ProjectTypeArchitecture, DisplayNameHe: "אדריכלות / רישוי / עיצוב פנים", IsActive: true},
}

func ValidProjectTypeKey(key string) bool {
	for _, pt := range DefaultProjectTypes {
		if pt.Key == key {
			return true
		}
	}
	return false
}

type ProjectTypeRepositoryInterface interface {
	List(ctx context.Context) ([]ProjectType, error)
	FindByID(ctx context.Context, id int) (*ProjectType, error)
	FindByKey(ctx context.Context, key string) (*ProjectType, error)
}
