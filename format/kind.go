package format

import (
	"mime"
	"strings"
)

// Kind classifies an archive container. The set of kinds is closed; anything
// that cannot be classified is KindUnknown.
type Kind int

// Recognized archive kinds.
const (
	KindUnknown Kind = iota
	KindZip
	KindEStargz
	KindSevenZip
	KindRar
	KindTar
	KindTarGzip
	KindTarZstd
)

var kindNames = map[Kind]string{
	KindUnknown:  "unknown",
	KindZip:      "zip",
	KindEStargz:  "estargz",
	KindSevenZip: "7z",
	KindRar:      "rar",
	KindTar:      "tar",
	KindTarGzip:  "tar.gz",
	KindTarZstd:  "tar.zst",
}

// String returns the short name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// ParseKind returns the kind with the given short name, or KindUnknown.
func ParseKind(name string) Kind {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindUnknown
}

// Media types mapped to each kind. Parameters are ignored when matching.
var mediaTypes = map[string]Kind{
	"application/zip":              KindZip,
	"application/x-zip":            KindZip,
	"application/x-zip-compressed": KindZip,
	"application/java-archive":     KindZip,

	// Gzip layers are only eStargz when they end with its footer; the EStargz
	// format confirms this before its index is read.
	"application/vnd.oci.image.layer.v1.tar+gzip":       KindEStargz,
	"application/vnd.docker.image.rootfs.diff.tar.gzip": KindEStargz,

	"application/x-7z-compressed": KindSevenZip,

	"application/vnd.rar":          KindRar,
	"application/x-rar":            KindRar,
	"application/x-rar-compressed": KindRar,

	"application/x-tar":                      KindTar,
	"application/vnd.oci.image.layer.v1.tar": KindTar,

	"application/gzip":             KindTarGzip,
	"application/x-gzip":           KindTarGzip,
	"application/x-compressed-tar": KindTarGzip,

	"application/zstd":                            KindTarZstd,
	"application/vnd.oci.image.layer.v1.tar+zstd": KindTarZstd,
}

// KindFromMediaType classifies a Content-Type or OCI media type value.
// Parameters such as charset are ignored and matching is case-insensitive.
func KindFromMediaType(value string) Kind {
	value = strings.TrimSpace(value)
	if value == "" {
		return KindUnknown
	}
	mt, _, err := mime.ParseMediaType(value)
	if err != nil {
		// Fall back to the bare type for values with malformed parameters.
		mt = strings.ToLower(strings.TrimSpace(strings.SplitN(value, ";", 2)[0]))
	}
	if k, ok := mediaTypes[mt]; ok {
		return k
	}
	return KindUnknown
}
