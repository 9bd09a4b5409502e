package conversation

// EmojiReactions is the fixed set offered by the reaction picker.
var EmojiReactions = []string{"👍", "❤️", "😂", "😯", "😢", "🙏"}

func IsSupportedEmoji(emoji string) bool {
	for _, e := range EmojiReactions {
		if e == emoji {
			return true
		}
	}
	return false
}

// ToggleReaction applies the per-actor toggle to a reaction list and returns the new list.
// The input slice is left untouched.
//
//   - no reaction from actor: add it
//   - same emoji: remove it
//   - different emoji: replace it
func ToggleReaction(reactions []Reaction, actorID string, emoji string) []Reaction {
	ret := make([]Reaction, 0, len(reactions)+1)
	found := false
	for _, r := range reactions {
		if r.ActorID != actorID {
			ret = append(ret, r)
			continue
		}
		found = true
		if r.Emoji != emoji {
			ret = append(ret, Reaction{Emoji: emoji, ActorID: actorID})
		}
	}
	if !found {
		ret = append(ret, Reaction{Emoji: emoji, ActorID: actorID})
	}
	if len(ret) == 0 {
		return nil
	}
	return ret
}

type ReactionGroup struct {
	Emoji    string   `json:"emoji" yaml:"emoji"`
	Count    int      `json:"count" yaml:"count"`
	ActorIDs []string `json:"actor_ids" yaml:"actor_ids"`
}

// AggregateReactions groups reactions by emoji, in order of first appearance.
func AggregateReactions(reactions []Reaction) []ReactionGroup {
	ret := []ReactionGroup{}
	idx := map[string]int{}
	for _, r := range reactions {
		i, ok := idx[r.Emoji]
		if !ok {
			i = len(ret)
			idx[r.Emoji] = i
			ret = append(ret, ReactionGroup{Emoji: r.Emoji})
		}
		ret[i].Count++
		ret[i].ActorIDs = append(ret[i].ActorIDs, r.ActorID)
	}
	return ret
}

func (g ReactionGroup) Includes(actorID string) bool {
	for _, a := range g.ActorIDs {
		if a == actorID {
			return true
		}
	}
	return false
}
