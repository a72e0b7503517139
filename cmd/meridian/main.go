// Meridian compiles natural-language policy rules into verified
// decision bundles and enforces them at generation time.
//
// Usage:
//
//	# Compile a rule set into a bundle
//	meridian compile --rules policies.yaml --out bundle.json
//
//	# Validate a compiled bundle
//	meridian validate --bundle bundle.json
//
//	# Start the enforcement server
//	meridian serve --config config.yaml
//
//	# Run one query through the pipeline without the server
//	meridian enforce --config config.yaml "Can I get a refund?"
//
//	# Verify the audit chain
//	meridian audit verify --config config.yaml
package main

func main() {
	Execute()
}
