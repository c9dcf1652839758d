package entity

// BackendKind enumerates the balance backend variants.
type BackendKind int

const (
	// NativeBackend reads the chain balance of an address (eth_getBalance).
	NativeBackend BackendKind = iota
	// TokenBackend calls balanceOf on a token contract (eth_call).
	TokenBackend
	// UnsupportedBackend has no balance discovery yet and always yields zero.
	UnsupportedBackend
)

func (k BackendKind) String() string {
	switch k {
	case NativeBackend:
		return "native"
	case TokenBackend:
		return "token"
	case UnsupportedBackend:
		return "unsupported"
	default:
		return "unknown"
	}
}

// ZeroAddress represents the Ethereum zero address.
const ZeroAddress = "0x0000000000000000000000000000000000000000"
