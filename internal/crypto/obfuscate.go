package crypto

import "encoding/base64"

// Obfuscate encodes a credential secret for storage. This is carried
// over from the original document format: obfuscation, not encryption.
// Anyone holding the document can reverse it.
func Obfuscate(secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(secret))
}

// Deobfuscate reverses Obfuscate.
func Deobfuscate(stored string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
