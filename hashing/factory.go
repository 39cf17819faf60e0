package hashing

// New constructs the Hasher named by algo, keyed by the given salt pair.
// Unsupported algorithm values return nil; callers validate Algorithm
// values at configuration time (see builder.Builder.Algorithm).
func New(algo Algorithm, salt1, salt2 uint64) Hasher {
	switch algo {
	case Murmur3_32:
		return NewMurmur3_32(uint32(salt1))
	case Murmur3_128:
		return NewMurmur3_128(salt1, salt2)
	case SHA256:
		return NewSHA256(salt1, salt2)
	case SipHash24:
		return NewSipHash24(salt1, salt2)
	case XXHash64:
		return NewXXHash64(salt1)
	default:
		return nil
	}
}

// Valid reports whether algo is one of the enumerated, stable identifiers.
func Valid(algo Algorithm) bool {
	switch algo {
	case Murmur3_32, Murmur3_128, SHA256, SipHash24, XXHash64:
		return true
	default:
		return false
	}
}
