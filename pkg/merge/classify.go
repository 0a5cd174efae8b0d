package merge

import "github.com/goliatone/go-diecut/pkg/model"

// FileState describes one path across the three trees. The equality flags
// are only meaningful when both compared trees contain the path.
type FileState struct {
	InOld     bool
	InNew     bool
	InProject bool

	ProjectEqOld bool
	OldEqNew     bool
	ProjectEqNew bool
}

// Classify maps a FileState onto a merge action.
//
//	old new project
//	 x   x    x     both stable → Unchanged; template only → UpdateFromTemplate;
//	                user only → KeepUser; both → Conflict unless project == new
//	 .   x    .     AddFromTemplate
//	 x   .    x     MarkForRemoval if untouched, else Conflict
//	 .   .    x     KeepUser
//	 .   x    x     Unchanged if equal, else Conflict
//	 x   .    .     Unchanged
//	 x   x    .     KeepUser (respect deletion) if old == new, else Conflict
func Classify(s FileState) model.MergeAction {
	switch {
	case s.InOld && s.InNew && s.InProject:
		userChanged := !s.ProjectEqOld
		templateChanged := !s.OldEqNew
		switch {
		case !userChanged && !templateChanged:
			return model.Unchanged
		case !userChanged && templateChanged:
			return model.UpdateFromTemplate
		case userChanged && !templateChanged:
			return model.KeepUser
		case s.ProjectEqNew:
			return model.Unchanged
		default:
			return model.Conflict
		}
	case !s.InOld && s.InNew && !s.InProject:
		return model.AddFromTemplate
	case s.InOld && !s.InNew && s.InProject:
		if s.ProjectEqOld {
			return model.MarkForRemoval
		}
		return model.Conflict
	case !s.InOld && !s.InNew && s.InProject:
		return model.KeepUser
	case !s.InOld && s.InNew && s.InProject:
		if s.ProjectEqNew {
			return model.Unchanged
		}
		return model.Conflict
	case s.InOld && s.InNew && !s.InProject:
		if s.OldEqNew {
			return model.KeepUser
		}
		return model.Conflict
	default:
		return model.Unchanged
	}
}
