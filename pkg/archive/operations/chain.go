package operations

import (
	"fmt"
	"strings"
)

// Named chains for parsing. Every archive starts from the tar serialization;
// the chain names the compression filters applied on top of it.
var namedChains = map[string][]uint8{
	"tar":     {},
	"tar.gz":  {OP_GZIP},
	"tgz":     {OP_GZIP},
	"tar.bz2": {OP_BZIP2},
	"tbz2":    {OP_BZIP2},
	"tar.zst": {OP_ZSTD},
}

// ParseChain resolves a chain name (e.g., "tar.gz") into the compression
// operations to apply after serialization.
func ParseChain(name string) ([]uint8, error) {
	chain := strings.ToLower(strings.TrimSpace(name))
	if chain == "" {
		return nil, nil
	}

	ops, ok := namedChains[chain]
	if !ok {
		return nil, fmt.Errorf("unknown operation chain: %s", name)
	}
	return ops, nil
}

// ChainExt returns the output filename extension for a chain, starting from
// the ".tar" the serializer always contributes.
func ChainExt(ops []uint8) (string, error) {
	ext := ".tar"
	for _, id := range ops {
		op, err := Get(id)
		if err != nil {
			return "", err
		}
		ext += op.Ext()
	}
	return ext, nil
}

// ApplyChain applies a chain of operations to data
func ApplyChain(data []byte, ops []uint8) ([]byte, error) {
	current := data

	for _, id := range ops {
		op, err := Get(id)
		if err != nil {
			return nil, fmt.Errorf("operation 0x%02x: %w", id, err)
		}

		result, err := op.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("applying %s: %w", op.Name(), err)
		}

		current = result
	}

	return current, nil
}

// ReverseChain reverses a chain of operations on data
func ReverseChain(data []byte, ops []uint8) ([]byte, error) {
	current := data

	// Apply operations in reverse order
	for i := len(ops) - 1; i >= 0; i-- {
		op, err := Get(ops[i])
		if err != nil {
			return nil, fmt.Errorf("operation 0x%02x: %w", ops[i], err)
		}

		result, err := op.Reverse(current)
		if err != nil {
			return nil, fmt.Errorf("reversing %s: %w", op.Name(), err)
		}

		current = result
	}

	return current, nil
}
