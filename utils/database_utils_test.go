package utils

import (
	"testing"

	"github.com/Luismorlan/localsocial/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndDrop(t *testing.T) {
	db, dbName := CreateTempDB(t)

	exists, err := IsDatabaseExist(dbName)
	assert.Nil(t, err)
	assert.True(t, exists)
	assert.True(t, isTempDB(dbName))
	assert.True(t, db.Migrator().HasTable(&model.Notification{}))
	assert.True(t, db.Migrator().HasTable("followers"))

	dropTempDB(db, dbName)

	exists, err = IsDatabaseExist(dbName)
	assert.Nil(t, err)
	assert.False(t, exists)
}

func TestIsDatabaseExist(t *testing.T) {
	SkipWithoutDB(t)

	exists, err := IsDatabaseExist("postgres")
	require.Nil(t, err)
	assert.True(t, exists)

	exists, err = IsDatabaseExist("DOES_NOT_EXIST")
	assert.Nil(t, err)
	assert.False(t, exists)
}

func TestRandomTestDBName(t *testing.T) {
	name := randomTestDBName()
	assert.True(t, isTempDB(name))
	assert.Len(t, name, len(TestDBPrefix)+TestDBNameCharLength)
	assert.False(t, isTempDB("localsocial"))
}
