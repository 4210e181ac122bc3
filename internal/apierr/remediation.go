package apierr

// providerRemediations overrides the generic hints for specific
// provider/category pairs.
var providerRemediations = map[string]map[Category]string{
	"claude": {
		CategoryAuthentication: "Re-authenticate with `claude auth login` or run `vibeusage auth claude`",
	},
	"codex": {
		CategoryAuthentication: "Re-authenticate with `codex login` or run `vibeusage auth codex`",
	},
	"copilot": {
		CategoryAuthentication: "Sign in to GitHub Copilot in your editor or run `vibeusage auth copilot`",
	},
}

var genericRemediations = map[Category]string{
	CategoryAuthentication: "Re-run `vibeusage auth <provider>` to refresh credentials",
	CategoryAuthorization:  "Check that your account has access to usage data",
	CategoryRateLimited:    "Wait a few minutes before fetching again",
	CategoryNetwork:        "Check your network connection",
	CategoryConfiguration:  "Check file permissions under the vibeusage config directory",
	CategoryNotFound:       "The usage endpoint may have moved; try updating vibeusage",
}

// Remediation returns the remediation hint for a provider/category pair,
// falling back to the generic per-category hint. Empty when there is no
// useful advice.
func Remediation(provider string, category Category) string {
	if byCat, ok := providerRemediations[provider]; ok {
		if hint, ok := byCat[category]; ok {
			return hint
		}
	}
	return genericRemediations[category]
}
