// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/swiftfs/blunder"
)

type testStoreStruct struct {
	name  string
	store Store
}

// testStores returns a MemoryStore plus, when dir's filesystem supports them, an XattrStore
func testStores(t *testing.T, dir string) (stores []testStoreStruct) {
	stores = []testStoreStruct{{name: MemoryStoreKind, store: NewMemoryStore()}}

	supported, err := XattrSupported(dir)
	require.NoError(t, err)
	if supported {
		stores = append(stores, testStoreStruct{name: XattrStoreKind, store: NewXattrStore()})
	} else {
		t.Logf("extended attributes unsupported under %s; exercising %s store only", dir, MemoryStoreKind)
	}

	return
}

func testValidRecord() Record {
	return Record{
		XContentType:   FileType,
		XContentLength: "3",
		XTimestamp:     "0000000001.00000",
		XETag:          EmptyETag,
		XType:          Object,
		XObjectType:    File,
	}
}

func TestValidate(t *testing.T) {
	assert := assert.New(t)

	assert.True(Validate(testValidRecord()))
	assert.False(Validate(nil))
	assert.False(Validate(Record{}))

	for _, key := range []string{XTimestamp, XContentType, XETag, XContentLength, XType, XObjectType} {
		record := testValidRecord()
		delete(record, key)
		assert.False(Validate(record), "record missing %s should be invalid", key)
	}

	record := testValidRecord()
	record[XType] = "Container"
	assert.False(Validate(record))

	record = testValidRecord()
	record["X-Object-Meta-Color"] = "blue"
	assert.True(Validate(record), "extra keys do not invalidate a record")
}

func TestObjectTypeFor(t *testing.T) {
	assert := assert.New(t)

	objectType, contentType := ObjectTypeFor("")
	assert.Equal(File, objectType)
	assert.Equal(FileType, contentType)

	objectType, contentType = ObjectTypeFor("Application/Directory")
	assert.Equal(MarkerDir, objectType)
	assert.Equal("Application/Directory", contentType)

	objectType, contentType = ObjectTypeFor("image/jpeg")
	assert.Equal(File, objectType)
	assert.Equal("image/jpeg", contentType)
}

func TestTimestamps(t *testing.T) {
	assert := assert.New(t)

	timestamp, err := NormalizeTimestamp("1")
	assert.NoError(err)
	assert.Equal("0000000001.00000", timestamp)

	timestamp, err = NormalizeTimestamp("1357924680.123456")
	assert.NoError(err)
	assert.Equal("1357924680.12346", timestamp)

	timestamp, err = NormalizeTimestamp(" 0000000002.50000 ")
	assert.NoError(err)
	assert.Equal("0000000002.50000", timestamp)

	for _, bad := range []string{"", "abc", "-1", "NaN", "+Inf"} {
		_, err = NormalizeTimestamp(bad)
		assert.True(blunder.Is(err, blunder.BadTimestampError), "NormalizeTimestamp(%q) should fail", bad)
	}

	assert.Equal("0000000003.25000", TimestampFromTime(time.Unix(3, 250000000)))

	// Fixed width keeps string order equal to numeric order
	assert.True(TimestampFromTime(time.Unix(9, 0)) < TimestampFromTime(time.Unix(10, 0)))
}

func TestNewStore(t *testing.T) {
	assert := assert.New(t)

	store, err := NewStore("XATTR")
	assert.NoError(err)
	assert.IsType(&XattrStore{}, store)

	store, err = NewStore(MemoryStoreKind)
	assert.NoError(err)
	assert.IsType(&MemoryStore{}, store)

	_, err = NewStore("sqlite")
	assert.Error(err)
}

func TestStoreReadWrite(t *testing.T) {
	dir := t.TempDir()

	for _, testStore := range testStores(t, dir) {
		t.Run(testStore.name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			store := testStore.store

			path := filepath.Join(dir, testStore.name+".obj")
			require.NoError(os.WriteFile(path, []byte("abc"), 0600))

			record, err := store.Read(path)
			assert.NoError(err)
			assert.Nil(record, "fresh file should carry no record")

			written := testValidRecord()
			written["X-Object-Meta-Big"] = strings.Repeat("x", 3*MaxXattrSize/2)
			require.NoError(store.Write(path, written))

			record, err = store.Read(path)
			assert.NoError(err)
			assert.Equal(written, record)

			// Shrinking the record must not leave stale trailing chunks behind
			delete(written, "X-Object-Meta-Big")
			require.NoError(store.Write(path, written))
			record, err = store.Read(path)
			assert.NoError(err)
			assert.Equal(written, record)

			// The record follows the entry across rename
			renamed := filepath.Join(dir, testStore.name+".renamed")
			require.NoError(os.Rename(path, renamed))
			record, err = store.Read(renamed)
			assert.NoError(err)
			assert.Equal(written, record)

			// Directories carry records too
			dirPath := filepath.Join(dir, testStore.name+".dir")
			require.NoError(os.Mkdir(dirPath, 0755))
			require.NoError(store.Write(dirPath, Record{XType: Object, XObjectType: MarkerDir}))
			record, err = store.Read(dirPath)
			assert.NoError(err)
			assert.Equal(MarkerDir, record[XObjectType])

			require.NoError(store.Remove(renamed))
			record, err = store.Read(renamed)
			assert.NoError(err)
			assert.Nil(record)
			assert.NoError(store.Remove(renamed), "Remove of an absent record is not an error")

			missing := filepath.Join(dir, "missing")
			_, err = store.Read(missing)
			assert.True(os.IsNotExist(err), "Read of a missing path should return the raw ENOENT, got %v", err)
			err = store.Write(missing, written)
			assert.True(os.IsNotExist(err), "Write to a missing path should return the raw ENOENT, got %v", err)
		})
	}
}

func TestMemoryStoreForget(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	store := NewMemoryStore()
	dirPath := filepath.Join(t.TempDir(), "marker")
	require.NoError(os.Mkdir(dirPath, 0755))
	require.NoError(store.Write(dirPath, Record{XType: Object, XObjectType: MarkerDir}))
	assert.Equal(1, store.Len())

	fileInfo, err := os.Stat(dirPath)
	require.NoError(err)
	require.NoError(os.Remove(dirPath))

	var forgetter Forgetter = store
	forgetter.Forget(fileInfo)
	assert.Equal(0, store.Len())

	forgetter.Forget(fileInfo)
	assert.Equal(0, store.Len(), "forgetting twice is harmless")
}

func TestCreateObjectMetadata(t *testing.T) {
	dir := t.TempDir()

	content := []byte("hello, world")
	sum := md5.Sum(content)
	contentETag := hex.EncodeToString(sum[:])

	for _, testStore := range testStores(t, dir) {
		t.Run(testStore.name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			store := testStore.store

			filePath := filepath.Join(dir, testStore.name+".file")
			require.NoError(os.WriteFile(filePath, content, 0600))

			// A partial record keeps its extra keys; the defaults win for the rest
			require.NoError(store.Write(filePath, Record{
				XContentLength:        "999",
				"X-Object-Meta-Color": "blue",
			}))

			record, err := CreateObjectMetadata(store, filePath)
			require.NoError(err)
			assert.True(Validate(record))
			assert.Equal(File, record[XObjectType])
			assert.Equal(FileType, record[XContentType])
			assert.Equal("12", record[XContentLength])
			assert.Equal(contentETag, record[XETag])
			assert.Equal("blue", record["X-Object-Meta-Color"])
			assert.Equal(16, len(record[XTimestamp]))

			persisted, err := store.Read(filePath)
			assert.NoError(err)
			assert.Equal(record, persisted)

			dirPath := filepath.Join(dir, testStore.name+".dir")
			require.NoError(os.Mkdir(dirPath, 0755))
			record, err = CreateObjectMetadata(store, dirPath)
			require.NoError(err)
			assert.True(Validate(record))
			assert.Equal(Dir, record[XObjectType])
			assert.Equal(DirType, record[XContentType])
			assert.Equal("0", record[XContentLength])
			assert.Equal("d41d8cd98f00b204e9800998ecf8427e", record[XETag])

			_, err = CreateObjectMetadata(store, filepath.Join(dir, "missing"))
			assert.True(os.IsNotExist(err))
		})
	}
}

func TestXattrCorruptRecord(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dir := t.TempDir()
	supported, err := XattrSupported(dir)
	require.NoError(err)
	if !supported {
		t.Skip("extended attributes unsupported")
	}

	path := filepath.Join(dir, "obj")
	require.NoError(os.WriteFile(path, nil, 0600))

	store := &XattrStore{chunkSize: 7}
	require.NoError(store.Write(path, testValidRecord()))
	record, err := store.Read(path)
	assert.NoError(err)
	assert.Equal(testValidRecord(), record, "small chunks reassemble")

	require.NoError(setRawChunk(path, 0, []byte{0xff, 0x00, 0x13}))
	record, err = store.Read(path)
	assert.NoError(err, "an undecodable record is reported as absent, not as an error")
	assert.Nil(record)
}
