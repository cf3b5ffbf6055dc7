package pdfvalidation

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePDFBytes_RejectsNonPDF(t *testing.T) {
	result, err := ValidatePDFBytes([]byte("this is not a pdf"), AttestationLimits)

	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Error, "missing PDF header")
}

func TestValidatePDFBytes_RejectsOversize(t *testing.T) {
	content := make([]byte, (AttestationLimits.MaxFileSizeMB+1)*1024*1024)
	copy(content, []byte("%PDF-1.7"))

	result, err := ValidatePDFBytes(content, AttestationLimits)

	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Error, "exceeds maximum allowed size")
}

func TestValidatePDFBytes_RejectsCorrupt(t *testing.T) {
	// Valid header but garbage body
	result, err := ValidatePDFBytes([]byte("%PDF-1.7\nnot really a document"), AttestationLimits)

	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Error)
}

func TestSanitizePDF_TrimsTrailingGarbage(t *testing.T) {
	doc := []byte("%PDF-1.7\nbody\n%%EOF\n")
	padded := append(append([]byte{}, doc...), bytes.Repeat([]byte{0x00}, 16)...)

	got := sanitizePDF(padded)
	assert.Equal(t, doc, got)
}

func TestSanitizePDF_LeavesCleanDocsAlone(t *testing.T) {
	doc := []byte("%PDF-1.7\nbody\n%%EOF")
	assert.Equal(t, doc, sanitizePDF(doc))

	nonPDF := []byte("plain text")
	assert.Equal(t, nonPDF, sanitizePDF(nonPDF))
}
