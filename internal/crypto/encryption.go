package crypto2

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/scrypt"
)

// KDFParams 密钥派生参数
type KDFParams struct {
	ScryptN       int
	ScryptR       int
	ScryptP       int
	Argon2Time    uint32
	Argon2Memory  uint32 // KiB
	Argon2Threads uint8
}

// DefaultKDFParams 高安全性配置：Scrypt (N=2^17, r=8, p=1) + Argon2id (t=3, 64 MB)
var DefaultKDFParams = KDFParams{
	ScryptN:       1 << 17,
	ScryptR:       8,
	ScryptP:       1,
	Argon2Time:    3,
	Argon2Memory:  64 * 1024,
	Argon2Threads: 4,
}

const keyLen = 32

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrDecryptionFailed  = errors.New("decryption failed: authentication error")
	ErrEmptySeed         = errors.New("encryption seed is empty")
)

// Sealer 使用派生密钥进行 AES-256-GCM 加解密
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer 从种子派生密钥并创建 Sealer
// 盐值取种子的 SHA-256，同一种子总是得到同一密钥
func NewSealer(seed []byte, params KDFParams) (*Sealer, error) {
	if len(seed) == 0 {
		return nil, ErrEmptySeed
	}
	key, err := DeriveKey(seed, Hash256(seed), params)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// DeriveKey 双重密钥派生：Scrypt 抗 ASIC，Argon2id 抗 GPU
func DeriveKey(password, salt []byte, params KDFParams) ([]byte, error) {
	scryptKey, err := scrypt.Key(password, salt, params.ScryptN, params.ScryptR, params.ScryptP, keyLen)
	if err != nil {
		return nil, err
	}
	return argon2.IDKey(scryptKey, salt, params.Argon2Time, params.Argon2Memory, params.Argon2Threads, keyLen), nil
}

// Hash256 computes SHA-256 hash of data
func Hash256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// Seal encrypts plaintext; associated data binds the ciphertext to its owner.
// Returns: nonce (12 bytes) + ciphertext + tag (16 bytes)
func (s *Sealer) Seal(plaintext, associated []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plaintext, associated), nil
}

// Open decrypts data produced by Seal with the same associated data.
func (s *Sealer) Open(ciphertext, associated []byte) ([]byte, error) {
	if len(ciphertext) < s.aead.NonceSize()+s.aead.Overhead() {
		return nil, ErrInvalidCiphertext
	}

	nonce := ciphertext[:s.aead.NonceSize()]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext[s.aead.NonceSize():], associated)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
