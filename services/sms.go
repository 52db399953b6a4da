package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"autoactas-backend/utils"
)

// TwilioSMS sends reminder copies by WhatsApp when the number is in E.164
// format and a WhatsApp sender is configured, by SMS otherwise.
type TwilioSMS struct {
	client       *twilio.RestClient
	from         string
	whatsAppFrom string
}

func NewTwilioSMS(accountSID, authToken, from, whatsAppFrom string) *TwilioSMS {
	return &TwilioSMS{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from:         from,
		whatsAppFrom: whatsAppFrom,
	}
}

func (t *TwilioSMS) Send(_ context.Context, to, body string) (SMSResult, error) {
	phone, ok := utils.NormalizePhone(to)
	if !ok {
		return SMSResult{}, fmt.Errorf("invalid phone number %q", to)
	}

	channel, dest, sender := "sms", phone, t.from
	if strings.HasPrefix(phone, "+") && t.whatsAppFrom != "" {
		channel = "whatsapp"
		dest = "whatsapp:" + phone
		sender = "whatsapp:" + t.whatsAppFrom
	}
	if sender == "" {
		return SMSResult{}, errors.New("no twilio sender configured for " + channel)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(dest)
	params.SetFrom(sender)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return SMSResult{Channel: channel}, fmt.Errorf("twilio: %w", err)
	}
	res := SMSResult{Channel: channel}
	if resp.Sid != nil {
		res.SID = *resp.Sid
	}
	return res, nil
}
