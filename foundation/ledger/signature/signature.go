// Package signature implements the typed data signing scheme used to
// authorize ledger operations. A payload is reduced to a digest in three
// steps: a domain separator binds the signature to one application
// instance and chain, a struct hash binds it to one payload layout and
// one set of field values, and the final digest binds the two together
// under a fixed prefix. The digest is what gets signed off node.
package signature

import (
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ethID is the value added to the recovery id when encoding the V part
// of a signature. Ethereum and Bitcoin settled on 27 and signing
// libraries expect it, so signatures produced here stay compatible
// with standard wallets.
const ethID = 27

// domainSchema is the canonical type signature the domain separator
// commits to. Reordering or retyping these fields would invalidate
// every signature ever produced under the old layout.
const domainSchema = "EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"

// Set of errors for signature handling.
var (
	ErrSignatureLength = errors.New("signature has wrong length")
	ErrSignatureValues = errors.New("invalid signature values")
	ErrWrongSigner     = errors.New("unexpected signer")
)

// =============================================================================

// Domain describes the signing domain that scopes every authorization to
// one application instance and one chain. The domain is supplied once at
// construction and never changes. Changing any field changes the domain
// separator, so a signature can never replay across applications,
// versions, or chains.
type Domain struct {
	Name              string
	Version           string
	ChainID           uint64
	VerifyingContract common.Address
}

// DomainSeparator returns the hash that scopes signatures to the
// specified domain.
func DomainSeparator(d Domain) common.Hash {
	name := crypto.Keccak256([]byte(d.Name))
	version := crypto.Keccak256([]byte(d.Version))
	chainID := Uint64Word(d.ChainID)
	contract := AddressWord(d.VerifyingContract)

	h := crypto.Keccak256(
		crypto.Keccak256([]byte(domainSchema)),
		name,
		version,
		chainID[:],
		contract[:],
	)

	return common.BytesToHash(h)
}

// TypeHash returns the fingerprint of a canonical type signature string.
// The fingerprint is folded into every struct hash, so any change to a
// payload schema invalidates signatures made under the old schema.
func TypeHash(schema string) common.Hash {
	return common.BytesToHash(crypto.Keccak256([]byte(schema)))
}

// StructHash hashes the ordered fixed layout encoding of a payload's
// fields together with the fingerprint of its schema. Callers must pass
// the fields in the exact order the schema declares them.
func StructHash(typeHash common.Hash, fields ...[32]byte) common.Hash {
	data := make([]byte, 0, common.HashLength*(len(fields)+1))
	data = append(data, typeHash.Bytes()...)
	for _, field := range fields {
		data = append(data, field[:]...)
	}

	return common.BytesToHash(crypto.Keccak256(data))
}

// Digest combines the domain separator and a struct hash under the fixed
// two byte prefix into the final hash that gets signed. The prefix keeps
// a typed payload digest from ever colliding with a plain message or a
// transaction encoding.
func Digest(domainSeparator common.Hash, structHash common.Hash) common.Hash {
	h := crypto.Keccak256(
		[]byte{0x19, 0x01},
		domainSeparator.Bytes(),
		structHash.Bytes(),
	)

	return common.BytesToHash(h)
}

// =============================================================================

// Sign uses the specified private key to sign the digest. The result is
// the 65 byte [R|S|V] form with V carrying the recovery id plus the
// ethID offset.
func Sign(digest common.Hash, privateKey *ecdsa.PrivateKey) ([]byte, error) {

	// Sign the digest with the private key to produce a signature.
	sig, err := crypto.Sign(digest.Bytes(), privateKey)
	if err != nil {
		return nil, err
	}

	// Extract the public key from the digest and the signature.
	publicKey, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return nil, err
	}

	// Check the public key extracted from the digest and signature.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), digest.Bytes(), rs) {
		return nil, errors.New("signature failed verification after signing")
	}

	sig[crypto.RecoveryIDOffset] += ethID

	return sig, nil
}

// RecoverSigner extracts the address for the account that signed the
// digest. A malformed signature is rejected with a distinct error and
// never resolves to an address.
func RecoverSigner(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrSignatureLength
	}

	// Check the recovery id is either 0 or 1 once the ethID offset
	// is removed.
	v := sig[crypto.RecoveryIDOffset] - ethID
	if v != 0 && v != 1 {
		return common.Address{}, ErrSignatureValues
	}

	// Check the signature values are valid.
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(v, r, s, false) {
		return common.Address{}, ErrSignatureValues
	}

	// Rebuild the raw form the recovery function expects.
	raw := make([]byte, crypto.SignatureLength)
	copy(raw, sig[:crypto.RecoveryIDOffset])
	raw[crypto.RecoveryIDOffset] = v

	// Capture the public key associated with this digest and signature.
	publicKey, err := crypto.SigToPub(digest.Bytes(), raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %s", ErrSignatureValues, err)
	}

	// Extract the account address from the public key.
	return crypto.PubkeyToAddress(*publicKey), nil
}

// Verify recovers the signer from the digest and signature and checks it
// against the expected address.
func Verify(digest common.Hash, sig []byte, expected common.Address) error {
	signer, err := RecoverSigner(digest, sig)
	if err != nil {
		return err
	}

	if signer != expected {
		return ErrWrongSigner
	}

	return nil
}

// =============================================================================

// Uint64Word encodes the value as a 32 byte big endian word.
func Uint64Word(v uint64) [32]byte {
	var word [32]byte
	binary.BigEndian.PutUint64(word[24:], v)

	return word
}

// AddressWord encodes the address left padded to a 32 byte word.
func AddressWord(addr common.Address) [32]byte {
	var word [32]byte
	copy(word[12:], addr.Bytes())

	return word
}

// HashWord encodes a hash as a 32 byte word. Dynamic fields such as
// strings are folded into their keccak hash before they enter a struct
// hash, and this converts that hash into field position form.
func HashWord(h common.Hash) [32]byte {
	return [32]byte(h)
}

// BytesWord hashes arbitrary bytes down to the 32 byte word a dynamic
// field contributes to a struct hash.
func BytesWord(data []byte) [32]byte {
	return [32]byte(common.BytesToHash(crypto.Keccak256(data)))
}

// =============================================================================

// SignatureString returns the 0x prefixed hex form of a signature for
// transport.
func SignatureString(sig []byte) string {
	return hexutil.Encode(sig)
}

// SignatureBytes converts the 0x prefixed hex form of a signature back
// into its 65 bytes.
func SignatureBytes(sigStr string) ([]byte, error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSignatureValues, err)
	}

	if len(sig) != crypto.SignatureLength {
		return nil, ErrSignatureLength
	}

	return sig, nil
}

// ToVRS splits a 65 byte signature into its V, R and S parts for
// encodings that carry them separately.
func ToVRS(sig []byte) (v, r, s *big.Int, err error) {
	if len(sig) != crypto.SignatureLength {
		return nil, nil, nil, ErrSignatureLength
	}

	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64]})

	return v, r, s, nil
}

// FromVRS rebuilds the 65 byte signature from its V, R and S parts. The
// R and S values are left padded back to 32 bytes each.
func FromVRS(v, r, s *big.Int) []byte {
	sig := make([]byte, crypto.SignatureLength)

	rBytes := r.Bytes()
	copy(sig[32-len(rBytes):32], rBytes)

	sBytes := s.Bytes()
	copy(sig[64-len(sBytes):64], sBytes)

	sig[64] = byte(v.Uint64())

	return sig
}
