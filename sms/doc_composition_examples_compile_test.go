package sms_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/spachava753/smscview/csvexport"
	"github.com/spachava753/smscview/sms"
)

func composeExportVerificationCodes(ctx context.Context, store sms.Store, dir string) (string, error) {
	if authorizer, ok := store.(sms.Authorizer); ok {
		if status := authorizer.Authorization(ctx); status != sms.AuthStatusAuthorized {
			return "", fmt.Errorf("message store is %s", status)
		}
	}

	records, err := sms.NewRepository(store, nil).Fetch(ctx, sms.FilterInbox, 500)
	if err != nil {
		return "", err
	}
	codes := sms.Search(records, "code")

	result := csvexport.Exporter{Dir: dir}.Export(codes, "verification_codes.csv")
	if !result.OK() {
		return "", errors.Join(errors.New(string(result.Status)), result.Err)
	}
	return result.Path, nil
}

func composeServiceCentersBySender(ctx context.Context, store sms.Store) (map[string][]string, error) {
	records, err := sms.NewRepository(store, nil).Fetch(ctx, sms.FilterBoth, sms.DefaultLimit)
	if err != nil {
		return nil, err
	}

	seen := map[string]map[string]struct{}{}
	out := map[string][]string{}
	for _, record := range records {
		if record.ServiceCenter == sms.NoServiceCenter {
			continue
		}
		if seen[record.Address] == nil {
			seen[record.Address] = map[string]struct{}{}
		}
		if _, ok := seen[record.Address][record.ServiceCenter]; ok {
			continue
		}
		seen[record.Address][record.ServiceCenter] = struct{}{}
		out[record.Address] = append(out[record.Address], record.ServiceCenter)
	}
	return out, nil
}
