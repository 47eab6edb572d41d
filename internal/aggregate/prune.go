package aggregate

import "hoardermap/internal/track"

// PruneState reduces a full device state to the fields the frontend
// renders: identity, battery, network summary, and weather. Sections
// absent from the source are absent from the pruned state.
func PruneState(state track.AuxState) track.AuxState {
	pruned := track.AuxState{}
	if state == nil {
		return pruned
	}

	if identity, ok := state["identity"].(map[string]any); ok {
		pruned["identity"] = map[string]any{"device_name": identity["device_name"]}
	}
	if power, ok := state["power"].(map[string]any); ok {
		pruned["power"] = map[string]any{"battery_percent": power["battery_percent"]}
	}
	if network, ok := state["network"].(map[string]any); ok {
		prunedNetwork := map[string]any{
			"type":     network["type"],
			"operator": network["operator"],
		}
		if cellular, ok := network["cellular"].(map[string]any); ok {
			prunedNetwork["signal_strength"] = cellular["signal_strength"]
		}
		pruned["network"] = prunedNetwork
	}
	if env, ok := state["environment"].(map[string]any); ok {
		prunedEnv := map[string]any{}
		if weather, ok := env["weather"].(map[string]any); ok {
			prunedEnv["weather"] = map[string]any{
				"description": weather["description"],
				"temperature": weather["temperature"],
				"assessment":  weather["assessment"],
				"humidity":    weather["humidity"],
			}
		}
		if wind, ok := env["wind"].(map[string]any); ok {
			prunedEnv["wind"] = map[string]any{
				"speed":       wind["speed"],
				"description": wind["description"],
				"direction":   wind["direction"],
			}
		}
		pruned["environment"] = prunedEnv
	}
	return pruned
}
