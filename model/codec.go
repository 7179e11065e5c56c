package model

import (
	"github.com/jacentio/kennel/store"
)

// Codecs for the stored entities.
var (
	DogCodec         store.Codec[Dog]         = dogCodec{}
	ScheduleCodec    store.Codec[Schedule]    = scheduleCodec{}
	CertificateCodec store.Codec[Certificate] = certificateCodec{}
)

type dogCodec struct{}

func (dogCodec) Encode(d Dog) store.Fields {
	f := store.Fields{
		FieldOwnerID:       d.OwnerID,
		FieldName:          d.Name,
		FieldBirthDate:     d.BirthDate,
		FieldBiologicalSex: string(d.BiologicalSex),
	}
	if d.ImageURL != "" {
		f[FieldImageURL] = d.ImageURL
	}
	return f
}

func (dogCodec) Decode(doc store.Document) (Dog, error) {
	var (
		d   = Dog{ID: doc.Ref.ID()}
		sex string
		err error
	)
	f := doc.Fields
	if d.OwnerID, err = f.String(FieldOwnerID); err != nil {
		return Dog{}, err
	}
	if d.Name, err = f.String(FieldName); err != nil {
		return Dog{}, err
	}
	if d.BirthDate, err = f.Time(FieldBirthDate); err != nil {
		return Dog{}, err
	}
	if sex, err = f.String(FieldBiologicalSex); err != nil {
		return Dog{}, err
	}
	if d.BiologicalSex, err = ParseBiologicalSex(sex); err != nil {
		return Dog{}, err
	}
	if d.ImageURL, err = f.OptionalString(FieldImageURL); err != nil {
		return Dog{}, err
	}
	return d, nil
}

type scheduleCodec struct{}

func (scheduleCodec) Encode(s Schedule) store.Fields {
	return store.Fields{
		FieldOwnerID:  s.OwnerID,
		FieldDogID:    s.DogID,
		FieldContent:  s.Content,
		FieldDate:     s.Date,
		FieldComplete: s.Complete,
	}
}

func (scheduleCodec) Decode(doc store.Document) (Schedule, error) {
	var (
		s   = Schedule{ID: doc.Ref.ID()}
		err error
	)
	f := doc.Fields
	if s.OwnerID, err = f.String(FieldOwnerID); err != nil {
		return Schedule{}, err
	}
	if s.DogID, err = f.String(FieldDogID); err != nil {
		return Schedule{}, err
	}
	if s.Content, err = f.OptionalString(FieldContent); err != nil {
		return Schedule{}, err
	}
	if s.Date, err = f.Time(FieldDate); err != nil {
		return Schedule{}, err
	}
	if s.Complete, err = f.Bool(FieldComplete); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

type certificateCodec struct{}

func (certificateCodec) Encode(c Certificate) store.Fields {
	f := store.Fields{
		FieldOwnerID: c.OwnerID,
		FieldDogID:   c.DogID,
		FieldTitle:   c.Title,
		FieldDate:    c.Date,
	}
	if c.Description != "" {
		f[FieldDescription] = c.Description
	}
	if c.ImageURL != "" {
		f[FieldImageURL] = c.ImageURL
	}
	return f
}

func (certificateCodec) Decode(doc store.Document) (Certificate, error) {
	var (
		c   = Certificate{ID: doc.Ref.ID()}
		err error
	)
	f := doc.Fields
	if c.OwnerID, err = f.String(FieldOwnerID); err != nil {
		return Certificate{}, err
	}
	if c.DogID, err = f.String(FieldDogID); err != nil {
		return Certificate{}, err
	}
	if c.Title, err = f.String(FieldTitle); err != nil {
		return Certificate{}, err
	}
	if c.Description, err = f.OptionalString(FieldDescription); err != nil {
		return Certificate{}, err
	}
	if c.ImageURL, err = f.OptionalString(FieldImageURL); err != nil {
		return Certificate{}, err
	}
	if c.Date, err = f.Time(FieldDate); err != nil {
		return Certificate{}, err
	}
	return c, nil
}
