package domain

// NextTemplate picks the template to suggest after lastCompletedID.
//
// Sporadic templates are skipped by the rotation. When every template is
// sporadic the first template is returned. An unknown pointer restarts the
// rotation instead of leaving the user without a suggestion.
func NextTemplate(templates []Template, lastCompletedID string) (*Template, bool) {
	if len(templates) == 0 {
		return nil, false
	}

	sequence := make([]*Template, 0, len(templates))
	for i := range templates {
		if !templates[i].Sporadic {
			sequence = append(sequence, &templates[i])
		}
	}

	if len(sequence) == 0 {
		return &templates[0], true
	}
	if lastCompletedID == "" {
		return sequence[0], true
	}

	for i, t := range sequence {
		if t.ID == lastCompletedID {
			return sequence[(i+1)%len(sequence)], true
		}
	}
	return sequence[0], true
}
