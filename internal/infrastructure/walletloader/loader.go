package walletloader

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"portfolio_tracker/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

// LoadWallets reads one wallet address per line. Blank lines and lines starting
// with '#' are ignored; duplicates (case-insensitive) are dropped.
func LoadWallets(filePath string) ([]entity.Wallet, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open wallet file %s: %w", filePath, err)
	}
	defer file.Close()

	var wallets []entity.Wallet
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "0x") || !common.IsHexAddress(line) {
			return nil, fmt.Errorf("invalid wallet address %q at %s:%d", line, filePath, lineNum)
		}
		key := strings.ToLower(line)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		wallets = append(wallets, entity.Wallet{Address: line})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning wallet file %s: %w", filePath, err)
	}
	return wallets, nil
}
