package keywordpir

// Symmetric PIR adds database privacy on top of keyword PIR: keywords are
// replaced by oblivious keywords derived through a verifiable OPRF (P-384),
// and values are sealed with AES-GCM under keys derived from the same OPRF
// output. Only the interface is fixed here; the OPRF and AEAD live with an
// external collaborator.

// Derived-material layout of the OPRF output, in bytes.
const (
	// ObliviousKeywordSize is the length of the oblivious keyword: the first
	// 16 bytes of the OPRF output.
	ObliviousKeywordSize = 16
	// EntryEncryptionKeySize is the AES key length: the next 24 bytes.
	EntryEncryptionKeySize = 24
	// EntryEncryptionNonceSize is the AES-GCM nonce length, taken from the
	// first 12 bytes of the key-derivation block.
	EntryEncryptionNonceSize = 12
	// EntryAuthenticationTagSize is the AES-GCM tag appended to each sealed
	// value.
	EntryAuthenticationTagSize = 16
)

// SymmetricPIRClientConfig is the public material a client needs to blind
// its keyword before querying: the server's OPRF public key.
type SymmetricPIRClientConfig struct {
	OPRFPublicKey []byte
}

// OPRF is the pseudorandom function the processor evaluates over keywords;
// the concrete implementation (P-384 VOPRF) is an external collaborator.
type OPRF interface {
	// Evaluate returns the full OPRF output for input; the caller slices the
	// oblivious keyword and encryption material from it.
	Evaluate(input []byte) ([]byte, error)
}

// SymmetricPIRProcessor rewrites a keyword database into its
// database-private form: keywords replaced by oblivious keywords, values
// sealed under per-row derived keys.
type SymmetricPIRProcessor interface {
	// Process returns the rows with oblivious keywords and sealed values,
	// ready for ProcessDatabase.
	Process(rows []KeywordValuePair) ([]KeywordValuePair, error)
	// ClientConfig returns the public configuration clients blind against.
	ClientConfig() SymmetricPIRClientConfig
}
