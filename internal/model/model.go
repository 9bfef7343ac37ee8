package model

import "context"

// taxpayer id (INN), passed verbatim
type INN string

// dates are kept as sent: "2006-01-02"
type Date string

type Description struct {
	ParticipantINN INN
}

type Product struct {
	CertificateDocument       string
	CertificateDocumentDate   Date
	CertificateDocumentNumber string
	OwnerINN                  INN
	ProducerINN               INN
	ProductionDate            Date
	TnvedCode                 string // commodity code
	UITCode                   string // unit id
	UITUCode                  string // package unit id
}

// one registration record; handed to the client as is and never changed there
type Document struct {
	Description    Description
	DocID          string
	DocStatus      string
	DocType        string
	ImportRequest  bool
	OwnerINN       INN
	ParticipantINN INN
	ProducerINN    INN
	ProductionDate Date
	ProductionType string
	Products       []Product // order is kept on the wire
	RegDate        Date
	RegNumber      string
}

// copy with its own products slice
func (d Document) Clone() Document {
	if d.Products != nil {
		d.Products = append([]Product(nil), d.Products...)
	}
	return d
}

type DocumentApiClient interface {
	Submit(ctx context.Context, endpointURL string, doc *Document, signature string) (SubmissionResult, error)
}
