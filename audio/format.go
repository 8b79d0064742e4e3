// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

// Format keys understood by DetectFormat.
const (
	FormatMP3  = "mp3"
	FormatWAV  = "wav"
	FormatOgg  = "ogg"
	FormatFLAC = "flac"
	FormatAIFF = "aiff"
)

var contentTypes = map[string]string{
	"audio/mpeg":      FormatMP3,
	"audio/mp3":       FormatMP3,
	"audio/mpeg3":     FormatMP3,
	"audio/x-mpeg-3":  FormatMP3,
	"audio/wav":       FormatWAV,
	"audio/wave":      FormatWAV,
	"audio/x-wav":     FormatWAV,
	"audio/vnd.wave":  FormatWAV,
	"audio/ogg":       FormatOgg,
	"audio/vorbis":    FormatOgg,
	"application/ogg": FormatOgg,
	"audio/flac":      FormatFLAC,
	"audio/x-flac":    FormatFLAC,
	"audio/aiff":      FormatAIFF,
	"audio/x-aiff":    FormatAIFF,
}

var extensions = map[string]string{
	".mp3":  FormatMP3,
	".wav":  FormatWAV,
	".wave": FormatWAV,
	".ogg":  FormatOgg,
	".oga":  FormatOgg,
	".flac": FormatFLAC,
	".aif":  FormatAIFF,
	".aiff": FormatAIFF,
}

// DetectFormat picks a format key for a resource. The declared content type
// wins when it names a known audio type; otherwise the extension of the URL
// path decides. Generic types such as application/octet-stream fall through
// to the extension. An empty string means the format is unknown.
func DetectFormat(rawURL, contentType string) string {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			if f, ok := contentTypes[strings.ToLower(mediaType)]; ok {
				return f
			}
		}
	}

	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}

	return extensions[strings.ToLower(path.Ext(p))]
}
