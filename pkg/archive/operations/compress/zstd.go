package compress

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/packmule-io/packmule/pkg/archive/operations"
)

func init() {
	operations.Register(&ZstdOperation{
		BaseOperation: operations.BaseOperation{
			OpID:   operations.OP_ZSTD,
			OpName: "ZSTD",
			OpExt:  ".zst",
		},
	})
}

// ZstdOperation implements Zstandard compression
type ZstdOperation struct {
	operations.BaseOperation
}

// Apply compresses data using Zstandard
func (o *ZstdOperation) Apply(input []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	defer enc.Close()

	return enc.EncodeAll(input, nil), nil
}

// Reverse decompresses Zstandard data
func (o *ZstdOperation) Reverse(input []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()

	data, err := dec.DecodeAll(input, nil)
	if err != nil {
		return nil, fmt.Errorf("reading zstd data: %w", err)
	}

	return data, nil
}
