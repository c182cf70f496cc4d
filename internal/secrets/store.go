package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Keys live in a 0600 JSON file under the user config dir, each sealed with
// AES-GCM under a key derived from the OS user. This keeps them out of the
// config and the database; it is not a keychain.

const fileName = "keys.json"

const (
	// DigestKey names the key used to digest codes before they are recorded.
	DigestKey = "attempt-digest"
	// DigestKeySize is the digest key length in bytes.
	DigestKeySize = 32
)

var (
	ErrKeyNotFound = errors.New("secrets: key not found")
	errNoName      = errors.New("secrets: key name required")
)

type secretFile struct {
	Keys map[string]string `json:"keys"` // name -> base64(ciphertext)
}

func StoreKey(name string, key []byte) error {
	ct, err := encrypt(key)
	if err != nil {
		return err
	}
	return update(name, func(sf *secretFile, name string) {
		sf.Keys[name] = base64.StdEncoding.EncodeToString(ct)
	})
}

func FetchKey(name string) ([]byte, error) {
	if name = norm(name); name == "" {
		return nil, errNoName
	}
	path, err := filePath()
	if err != nil {
		return nil, err
	}
	sf, err := load(path)
	if err != nil {
		return nil, err
	}
	enc, ok := sf.Keys[name]
	if !ok {
		return nil, ErrKeyNotFound
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, fmt.Errorf("decode key %s: %w", name, err)
	}
	return decrypt(raw)
}

// DeleteKey removes the named key. Deleting a missing key is not an error.
func DeleteKey(name string) error {
	return update(name, func(sf *secretFile, name string) {
		delete(sf.Keys, name)
	})
}

// RotateKey replaces the named key with size fresh random bytes.
func RotateKey(name string, size int) ([]byte, error) {
	if err := DeleteKey(name); err != nil {
		return nil, fmt.Errorf("drop key %s: %w", norm(name), err)
	}
	return EnsureKey(name, size)
}

// update loads the key file, applies fn to the normalised name and writes
// the file back.
func update(name string, fn func(sf *secretFile, name string)) error {
	if name = norm(name); name == "" {
		return errNoName
	}
	path, err := filePath()
	if err != nil {
		return err
	}
	sf, err := load(path)
	if err != nil {
		return err
	}
	if sf.Keys == nil {
		sf.Keys = map[string]string{}
	}
	fn(&sf, name)
	return save(path, sf)
}

// EnsureKey returns the named key, generating and storing size random bytes
// the first time.
func EnsureKey(name string, size int) ([]byte, error) {
	key, err := FetchKey(name)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}
	key = make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	if err := StoreKey(name, key); err != nil {
		return nil, err
	}
	return key, nil
}

func filePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "otpfield")
	if err := os.MkdirAll(dir, 0o700); err != nil { // restrict directory
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

func load(path string) (secretFile, error) {
	var sf secretFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return secretFile{}, nil
		}
		return sf, err
	}
	if err := json.Unmarshal(data, &sf); err != nil {
		return sf, err
	}
	return sf, nil
}

func save(path string, sf secretFile) error {
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func norm(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func masterKey() []byte {
	user := os.Getenv("USER")
	base := fmt.Sprintf("otpfield-%s-%s", runtime.GOOS, user)
	hash := sha256.Sum256([]byte(base))
	return hash[:]
}

func newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(masterKey())
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encrypt(plain []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce := ciphertext[:gcm.NonceSize()]
	body := ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}
