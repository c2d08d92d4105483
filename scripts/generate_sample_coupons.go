package main

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Creates sample coupon files for local development.
// A code is valid when it appears in at least 2 of the 3 files and is
// 8-10 characters long.
func main() {
	dataDir := "data/coupons"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	coupons := map[string][]string{
		"couponbase1.gz": {
			"CARTSAVE1",  // In file 1 and 2
			"FREESHIP10", // In file 1 and 2
			"ALLFILES1",  // In all 3 files
			"SOLOFILE1",  // Only in file 1
			"SUMMER2026", // In file 1 and 3
		},
		"couponbase2.gz": {
			"CARTSAVE1",  // In file 1 and 2
			"FREESHIP10", // In file 1 and 2
			"ALLFILES1",  // In all 3 files
			"SOLOFILE2",  // Only in file 2
			"WINTER2026", // In file 2 and 3
		},
		"couponbase3.gz": {
			"WINTER2026", // In file 2 and 3
			"SUMMER2026", // In file 1 and 3
			"ALLFILES1",  // In all 3 files
			"SOLOFILE3",  // Only in file 3
		},
	}

	for filename, codes := range coupons {
		filePath := filepath.Join(dataDir, filename)

		if err := createCouponFile(filePath, codes); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d codes\n", filePath, len(codes))
	}

	fmt.Println("\nSample coupon files created successfully!")
	fmt.Println("\nValid codes (appear in at least 2 files):")
	fmt.Println("  - CARTSAVE1  (files 1, 2)")
	fmt.Println("  - FREESHIP10 (files 1, 2)")
	fmt.Println("  - ALLFILES1  (files 1, 2, 3)")
	fmt.Println("  - SUMMER2026 (files 1, 3)")
	fmt.Println("  - WINTER2026 (files 2, 3)")
	fmt.Println("\nInvalid codes (appear in only 1 file):")
	fmt.Println("  - SOLOFILE1 (file 1 only)")
	fmt.Println("  - SOLOFILE2 (file 2 only)")
	fmt.Println("  - SOLOFILE3 (file 3 only)")
}

func createCouponFile(filePath string, coupons []string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	for _, coupon := range coupons {
		if _, err := fmt.Fprintf(gzipWriter, "%s\n", coupon); err != nil {
			return fmt.Errorf("failed to write coupon: %w", err)
		}
	}

	return nil
}
