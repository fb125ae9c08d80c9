package constants_test

import (
	"fmt"
	"math"

	"github.com/agentstation/plantmap/pkg/constants"
)

// Example_progress shows how download progress grows per page.
func Example_progress() {
	for _, pages := range []int{1, 50, 150} {
		fmt.Printf("%d pages: %.2f\n", pages, math.Min(1, float64(pages)*constants.ProgressStep))
	}
	// Output:
	// 1 pages: 0.01
	// 50 pages: 0.50
	// 150 pages: 1.00
}

// Example_permissions shows the standard permissions.
func Example_permissions() {
	fmt.Printf("dir %o file %o db %o\n", constants.DirPermissions, constants.FilePermissions, constants.SecureFilePermissions)
	// Output: dir 755 file 644 db 600
}
