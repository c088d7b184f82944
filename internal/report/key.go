package report

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/ayyoubmarroun/pykemen/internal/config"
	"github.com/ayyoubmarroun/pykemen/pkg/contracts/domain"
)

var (
	rangeFilePattern = regexp.MustCompile(config.ReportFilePattern)
	dayFilePattern   = regexp.MustCompile(config.UnsampledReportPattern)
)

// CacheKey derives the cache directory name of spec. Only dimensions,
// metrics, filters and segments take part, so specs that differ in date
// range, sort or mode share a key.
func CacheKey(spec domain.ReportSpec) string {
	raw := strings.Join([]string{
		strings.Join(spec.Dimensions, ","),
		strings.Join(spec.Metrics, ","),
		spec.Filters,
		spec.Segments,
	}, ",")
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ProfileID strips the "ga:" prefix from a view identifier
func ProfileID(ids string) string {
	return strings.TrimPrefix(ids, config.ProfilePrefix)
}

func rangeFileName(start, end string) string {
	return fmt.Sprintf(config.ReportFileFormat, start, end)
}

func dayFileName(day string) string {
	return fmt.Sprintf(config.UnsampledReportFileFormat, day)
}
