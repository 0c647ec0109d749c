package build

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"regexp"
	"strconv"
	"strings"
)

var (
	hashPlaceholder = regexp.MustCompile(`\[(?:chunk|content)?hash(?::(\d+))?\]`)
	extSuffix       = regexp.MustCompile(`\.(?:\[ext\]|m?js|css)$`)
)

// esbuildPattern converts a webpack-style file name pattern such as
// "[name].[chunkhash:8].js" to esbuild's "[name].[hash]". esbuild appends
// the extension itself and always emits 8-character hashes.
func esbuildPattern(pattern string) string {
	p := hashPlaceholder.ReplaceAllString(pattern, "[hash]")
	return extSuffix.ReplaceAllString(p, "")
}

// expandName fills a file name pattern for contents. [hash:N] takes the
// first N hex characters of the SHA-256 of contents; ext has no dot.
func expandName(pattern, name, ext string, contents []byte) string {
	sum := sha256.Sum256(contents)
	digest := hex.EncodeToString(sum[:])

	out := hashPlaceholder.ReplaceAllStringFunc(pattern, func(m string) string {
		n := 8
		if sub := hashPlaceholder.FindStringSubmatch(m); sub[1] != "" {
			if v, err := strconv.Atoi(sub[1]); err == nil && v > 0 && v <= len(digest) {
				n = v
			}
		}
		return digest[:n]
	})
	out = strings.ReplaceAll(out, "[name]", name)
	out = strings.ReplaceAll(out, "[ext]", ext)
	return path.Clean(out)
}

// logicalName strips the content hash from an emitted file name:
// "assets/images/fe.7ZK2MQ4B.svg" becomes "assets/images/fe.svg".
func logicalName(rel string) string {
	dir, file := path.Split(rel)
	parts := strings.Split(file, ".")
	if len(parts) < 3 {
		return rel
	}
	parts = append(parts[:len(parts)-2], parts[len(parts)-1])
	return dir + strings.Join(parts, ".")
}
