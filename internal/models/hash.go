package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// HashValue is a hex-encoded SHA-256 digest. Bulletin board leaves are
// addressed by it.
type HashValue string

// QuestionID is the content hash of a question's defining fields. Immutable,
// primary key everywhere.
type QuestionID = HashValue

// Version is the hash of the most recent bulletin board leaf accepted for a
// question. Used as an optimistic concurrency token.
type Version = HashValue

func (h HashValue) Valid() bool {
	if len(h) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(string(h))
	return err == nil
}

// ComputeQuestionID derives the question identity from its defining fields.
// Identical (author, text, timestamp) always yields the same ID, which is how
// accidental duplicate submissions are detected.
func ComputeQuestionID(author, questionText string, createdTimestamp int64) QuestionID {
	d := sha256.New()
	d.Write([]byte(author))
	d.Write([]byte{0})
	d.Write([]byte(strconv.FormatInt(createdTimestamp, 10)))
	d.Write([]byte{0})
	d.Write([]byte(questionText))
	return QuestionID(hex.EncodeToString(d.Sum(nil)))
}
