// Package reaction holds the like/dislike toggle rules for a (user, post) pair.
//
// A pair is in exactly one of three states. Liking and disliking are toggles:
// repeating an action undoes it, and switching sides clears the other side in
// the same step, so a user never likes and dislikes the same post at once.
package reaction

// State is the reaction of one user to one post.
type State string

const (
	Neutral  State = "neutral"
	Liked    State = "liked"
	Disliked State = "disliked"
)

// Action is a toggle requested by a user.
type Action string

const (
	Like    Action = "like"
	Dislike Action = "dislike"
)

// target is the state an action moves towards.
func (a Action) target() State {
	if a == Like {
		return Liked
	}
	return Disliked
}

// Apply returns the state after a toggles current.
func Apply(current State, a Action) State {
	if current == a.target() {
		return Neutral
	}
	return a.target()
}

// StateOf derives the state from set membership. Both flags set would break the
// invariant; it is reported as Neutral so the next toggle repairs the pair.
func StateOf(liked, disliked bool) State {
	switch {
	case liked && disliked:
		return Neutral
	case liked:
		return Liked
	case disliked:
		return Disliked
	}
	return Neutral
}

// IsLiked reports whether the state counts as a like.
func (s State) IsLiked() bool { return s == Liked }

// IsDisliked reports whether the state counts as a dislike.
func (s State) IsDisliked() bool { return s == Disliked }

// Summary is the reaction read model of one post relative to one viewer.
type Summary struct {
	LikesCount    int64 `json:"likes_count"`
	DislikesCount int64 `json:"dislikes_count"`
	Viewer        State `json:"state"`
}
