package domain

import "fmt"

// Action names a mutating operation subject to authorization.
type Action string

const (
	ActionCreatePost  Action = "post.create"
	ActionUpdatePost  Action = "post.update"
	ActionArchivePost Action = "post.archive"
	ActionDeletePost  Action = "post.delete"
	ActionReviewPost  Action = "post.review"
)

// Authorize is the single policy gate every mutating operation goes
// through. It evaluates a closed set of role/ownership predicates instead
// of ad-hoc comparisons scattered across handlers. The post argument may be
// nil only for ActionCreatePost.
func Authorize(action Action, actor *User, post *Post) error {
	if actor == nil {
		return fmt.Errorf("%w: no acting user resolved", ErrForbidden)
	}

	switch action {
	case ActionCreatePost:
		if !actor.IsSeller() {
			return fmt.Errorf("%w: only sellers can create posts", ErrForbidden)
		}
		return nil

	case ActionUpdatePost, ActionArchivePost, ActionDeletePost:
		if post == nil || post.UserID != actor.ID {
			return fmt.Errorf("%w: you do not own this post", ErrForbidden)
		}
		return nil

	case ActionReviewPost:
		if post != nil && post.UserID == actor.ID {
			return fmt.Errorf("%w: you cannot review your own post", ErrForbidden)
		}
		return nil
	}

	return fmt.Errorf("%w: unknown action %q", ErrForbidden, action)
}
