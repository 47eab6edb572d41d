package track

// AuxState is the opaque telemetry snapshot attached to one sample. The
// engine stores and forwards it without interpreting field contents; only
// boundary code (pruning, display) resolves known fields via Telemetry.
type AuxState map[string]any

// Clone returns a deep copy of the state. Nested maps are copied; scalar
// values are shared.
func (s AuxState) Clone() AuxState {
	if s == nil {
		return nil
	}
	out := make(AuxState, len(s))
	for k, v := range s {
		if nested, ok := v.(map[string]any); ok {
			out[k] = map[string]any(AuxState(nested).Clone())
			continue
		}
		out[k] = v
	}
	return out
}

// Telemetry is the resolved view of the known optional AuxState fields.
// Every field has a documented default applied at the boundary where the
// record is received: strings default to "", numeric fields to NaN-free
// zero values, and Has* flags report presence.
type Telemetry struct {
	DeviceName string // identity.device_name, default ""

	BatteryPercent    float64 // power.battery_percent, default 0
	HasBatteryPercent bool

	NetworkType     string  // network.type, default ""
	NetworkOperator string  // network.operator, default ""
	SignalStrength  float64 // network.cellular.signal_strength, default 0
	HasSignal       bool

	WeatherDescription string  // environment.weather.description, default ""
	WeatherAssessment  string  // environment.weather.assessment, default ""
	Temperature        float64 // environment.weather.temperature, default 0
	HasTemperature     bool
	Humidity           float64 // environment.weather.humidity, default 0
	HasHumidity        bool

	WindSpeed       float64 // environment.wind.speed, default 0
	HasWindSpeed    bool
	WindDescription string // environment.wind.description, default ""
	WindDirection   string // environment.wind.direction, default ""
}

// ResolveTelemetry extracts the known optional fields from an AuxState,
// applying defaults for anything missing or of an unexpected type.
func ResolveTelemetry(s AuxState) Telemetry {
	var t Telemetry
	if s == nil {
		return t
	}
	if identity := subMap(s, "identity"); identity != nil {
		t.DeviceName = stringField(identity, "device_name")
	}
	if power := subMap(s, "power"); power != nil {
		t.BatteryPercent, t.HasBatteryPercent = numberField(power, "battery_percent")
	}
	if network := subMap(s, "network"); network != nil {
		t.NetworkType = stringField(network, "type")
		t.NetworkOperator = stringField(network, "operator")
		if cellular := subMap(network, "cellular"); cellular != nil {
			t.SignalStrength, t.HasSignal = numberField(cellular, "signal_strength")
		}
	}
	if env := subMap(s, "environment"); env != nil {
		if weather := subMap(env, "weather"); weather != nil {
			t.WeatherDescription = stringField(weather, "description")
			t.WeatherAssessment = stringField(weather, "assessment")
			t.Temperature, t.HasTemperature = numberField(weather, "temperature")
			t.Humidity, t.HasHumidity = numberField(weather, "humidity")
		}
		if wind := subMap(env, "wind"); wind != nil {
			t.WindSpeed, t.HasWindSpeed = numberField(wind, "speed")
			t.WindDescription = stringField(wind, "description")
			t.WindDirection = stringField(wind, "direction")
		}
	}
	return t
}

func subMap(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func numberField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
