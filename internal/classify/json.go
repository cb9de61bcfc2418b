package classify

import "encoding/json"

// MarshalJSON renders the state by name so monitoring consumers see
// "Calm"/"Normal"/"Noisy" instead of ordinals.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
