// --- START OF FINAL REVISED FILE cmd/stack-formatter/main.go ---
package main

// Build-time variables 'version', 'commit', and 'date' are declared in
// root.go and populated via -ldflags.

// main is the entry point for the stack-formatter application.
func main() {
	Execute()
}

// --- END OF FINAL REVISED FILE cmd/stack-formatter/main.go ---
