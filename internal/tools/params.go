package tools

import "fmt"

// GetStringParam extracts a string parameter with a default value
func GetStringParam(params map[string]interface{}, name, defaultValue string) string {
	if v, ok := params[name].(string); ok {
		return v
	}
	return defaultValue
}

// RequireStringParam extracts a required string parameter
func RequireStringParam(params map[string]interface{}, name string) (string, error) {
	v, ok := params[name].(string)
	if !ok {
		return "", fmt.Errorf("Missing or invalid string argument: %s", name)
	}
	return v, nil
}
