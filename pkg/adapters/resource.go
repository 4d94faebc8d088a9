package adapters

import (
	"github.com/de-tools/cluster-iq/pkg/models/api"
	"github.com/de-tools/cluster-iq/pkg/models/domain"
)

func MapResourceRecordDomainToApi(r domain.ResourceRecord) api.Resource {
	return api.Resource{
		ResourceType: string(r.Type),
		Id:           r.ID,
		Name:         r.Name,
		State:        string(r.State),
		Attributes:   r.Attrs,
	}
}

func MapResourceRecordsDomainToApi(records []domain.ResourceRecord) []api.Resource {
	res := make([]api.Resource, 0, len(records))
	for _, r := range records {
		res = append(res, MapResourceRecordDomainToApi(r))
	}
	return res
}
