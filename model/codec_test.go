package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/kennel/model"
	"github.com/jacentio/kennel/store"
)

var dogs = store.Collection("owners").Doc("u1").Collection("dogs")

func TestDogCodec(t *testing.T) {
	birth := time.Date(2020, 3, 1, 11, 0, 0, 0, time.UTC)
	d := model.Dog{OwnerID: "u1", Name: "Rex", BirthDate: birth, BiologicalSex: model.Male}

	fields := model.DogCodec.Encode(d)
	assert.NotContains(t, fields, model.FieldImageURL)
	assert.NotContains(t, fields, "id")
	assert.Equal(t, "male", fields[model.FieldBiologicalSex])

	got, err := model.DogCodec.Decode(store.Document{Ref: dogs.Doc("d1"), Fields: fields})
	require.NoError(t, err)
	d.ID = "d1"
	assert.Equal(t, d, got)
}

func TestDogCodec_AcceptsStringTimestamps(t *testing.T) {
	got, err := model.DogCodec.Decode(store.Document{Ref: dogs.Doc("d1"), Fields: store.Fields{
		model.FieldOwnerID:       "u1",
		model.FieldName:          "Bella",
		model.FieldBirthDate:     "2021-06-15T00:00:00.000000000Z",
		model.FieldBiologicalSex: "female",
		model.FieldImageURL:      "https://example.com/bella.png",
	}})
	require.NoError(t, err)
	assert.Equal(t, model.Female, got.BiologicalSex)
	assert.Equal(t, 2021, got.BirthDate.Year())
	assert.Equal(t, "https://example.com/bella.png", got.ImageURL)
}

func TestDogCodec_Rejects(t *testing.T) {
	valid := func() store.Fields {
		return model.DogCodec.Encode(model.Dog{OwnerID: "u1", Name: "Rex", BirthDate: time.Now(), BiologicalSex: model.Female})
	}

	tests := []struct {
		name   string
		mutate func(store.Fields)
	}{
		{"missing name", func(f store.Fields) { delete(f, model.FieldName) }},
		{"unknown sex", func(f store.Fields) { f[model.FieldBiologicalSex] = "other" }},
		{"bad birth date", func(f store.Fields) { f[model.FieldBirthDate] = 12 }},
		{"image not a string", func(f store.Fields) { f[model.FieldImageURL] = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.mutate(f)
			_, err := model.DogCodec.Decode(store.Document{Ref: dogs.Doc("d1"), Fields: f})
			assert.Error(t, err)
		})
	}
}

func TestScheduleCodec(t *testing.T) {
	s := model.Schedule{
		OwnerID: "u1",
		DogID:   "d1",
		Content: "vet visit",
		Date:    time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	ref := dogs.Doc("d1").Collection("schedules").Doc("s1")

	fields := model.ScheduleCodec.Encode(s)
	assert.Equal(t, false, fields[model.FieldComplete])

	got, err := model.ScheduleCodec.Decode(store.Document{Ref: ref, Fields: fields})
	require.NoError(t, err)
	s.ID = "s1"
	assert.Equal(t, s, got)

	delete(fields, model.FieldComplete)
	_, err = model.ScheduleCodec.Decode(store.Document{Ref: ref, Fields: fields})
	var fe *store.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, model.FieldComplete, fe.Field)
}

func TestCertificateCodec(t *testing.T) {
	c := model.Certificate{
		OwnerID:     "u1",
		DogID:       "d1",
		Title:       "Rabies",
		Description: "annual booster",
		Date:        time.Date(2023, 5, 2, 0, 0, 0, 0, time.UTC),
	}
	ref := dogs.Doc("d1").Collection("certificates").Doc("c1")

	fields := model.CertificateCodec.Encode(c)
	assert.NotContains(t, fields, model.FieldImageURL)

	got, err := model.CertificateCodec.Decode(store.Document{Ref: ref, Fields: fields})
	require.NoError(t, err)
	c.ID = "c1"
	assert.Equal(t, c, got)

	fields[model.FieldTitle] = nil
	_, err = model.CertificateCodec.Decode(store.Document{Ref: ref, Fields: fields})
	assert.Error(t, err)
}

func TestParseBiologicalSex(t *testing.T) {
	s, err := model.ParseBiologicalSex("male")
	require.NoError(t, err)
	assert.Equal(t, model.Male, s)

	_, err = model.ParseBiologicalSex("Male")
	assert.Error(t, err)
}
