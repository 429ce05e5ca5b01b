// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package mail renders notification emails and hands them to the outbox
// queue. Delivery itself is done by an external worker draining the queue;
// the application never blocks on SMTP.
package mail

import "time"

// Message is a rendered email ready for delivery.
type Message struct {
	To        string    `json:"to"`
	From      string    `json:"from"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Template  string    `json:"template"`
	CreatedAt time.Time `json:"created_at"`
}
