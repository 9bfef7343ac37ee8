package client

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/veksh/crpt-docs-client/internal/model"
)

type Serializer interface {
	Marshal(doc model.Document) ([]byte, error)
	Unmarshal(data []byte) (model.Document, error)
}

// API wire format: CRPT wire names, products array in document order
type apiDescription struct {
	ParticipantINN string `json:"participantInn"`
}

type apiProduct struct {
	CertificateDocument       string `json:"certificate_document"`
	CertificateDocumentDate   string `json:"certificate_document_date"`
	CertificateDocumentNumber string `json:"certificate_document_number"`
	OwnerINN                  string `json:"owner_inn"`
	ProducerINN               string `json:"producer_inn"`
	ProductionDate            string `json:"production_date"`
	TnvedCode                 string `json:"tnved_code"`
	UITCode                   string `json:"uit_code"`
	UITUCode                  string `json:"uitu_code"`
}

type apiDocument struct {
	Description    apiDescription `json:"description"`
	DocID          string         `json:"doc_id"`
	DocStatus      string         `json:"doc_status"`
	DocType        string         `json:"doc_type"`
	ImportRequest  bool           `json:"importRequest"`
	OwnerINN       string         `json:"owner_inn"`
	ParticipantINN string         `json:"participant_inn"`
	ProducerINN    string         `json:"producer_inn"`
	ProductionDate string         `json:"production_date"`
	ProductionType string         `json:"production_type"`
	Products       []apiProduct   `json:"products"`
	RegDate        string         `json:"reg_date"`
	RegNumber      string         `json:"reg_number"`
}

type JSONSerializer struct{}

var _ Serializer = JSONSerializer{}

func (JSONSerializer) Marshal(doc model.Document) ([]byte, error) {
	ad := apiDocument{
		Description:    apiDescription{ParticipantINN: string(doc.Description.ParticipantINN)},
		DocID:          doc.DocID,
		DocStatus:      doc.DocStatus,
		DocType:        doc.DocType,
		ImportRequest:  doc.ImportRequest,
		OwnerINN:       string(doc.OwnerINN),
		ParticipantINN: string(doc.ParticipantINN),
		ProducerINN:    string(doc.ProducerINN),
		ProductionDate: string(doc.ProductionDate),
		ProductionType: doc.ProductionType,
		Products:       make([]apiProduct, 0, len(doc.Products)),
		RegDate:        string(doc.RegDate),
		RegNumber:      doc.RegNumber,
	}
	for _, mp := range doc.Products {
		ad.Products = append(ad.Products, apiProduct{
			CertificateDocument:       mp.CertificateDocument,
			CertificateDocumentDate:   string(mp.CertificateDocumentDate),
			CertificateDocumentNumber: mp.CertificateDocumentNumber,
			OwnerINN:                  string(mp.OwnerINN),
			ProducerINN:               string(mp.ProducerINN),
			ProductionDate:            string(mp.ProductionDate),
			TnvedCode:                 mp.TnvedCode,
			UITCode:                   mp.UITCode,
			UITUCode:                  mp.UITUCode,
		})
	}
	data, err := json.Marshal(&ad)
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal json")
	}
	return data, nil
}

func (JSONSerializer) Unmarshal(data []byte) (model.Document, error) {
	var ad apiDocument
	if err := json.Unmarshal(data, &ad); err != nil {
		return model.Document{}, errors.Wrap(err, "cannot decode json document")
	}
	doc := model.Document{
		Description:    model.Description{ParticipantINN: model.INN(ad.Description.ParticipantINN)},
		DocID:          ad.DocID,
		DocStatus:      ad.DocStatus,
		DocType:        ad.DocType,
		ImportRequest:  ad.ImportRequest,
		OwnerINN:       model.INN(ad.OwnerINN),
		ParticipantINN: model.INN(ad.ParticipantINN),
		ProducerINN:    model.INN(ad.ProducerINN),
		ProductionDate: model.Date(ad.ProductionDate),
		ProductionType: ad.ProductionType,
		RegDate:        model.Date(ad.RegDate),
		RegNumber:      ad.RegNumber,
	}
	if len(ad.Products) > 0 {
		doc.Products = make([]model.Product, 0, len(ad.Products))
	}
	for _, ap := range ad.Products {
		doc.Products = append(doc.Products, model.Product{
			CertificateDocument:       ap.CertificateDocument,
			CertificateDocumentDate:   model.Date(ap.CertificateDocumentDate),
			CertificateDocumentNumber: ap.CertificateDocumentNumber,
			OwnerINN:                  model.INN(ap.OwnerINN),
			ProducerINN:               model.INN(ap.ProducerINN),
			ProductionDate:            model.Date(ap.ProductionDate),
			TnvedCode:                 ap.TnvedCode,
			UITCode:                   ap.UITCode,
			UITUCode:                  ap.UITUCode,
		})
	}
	return doc, nil
}
