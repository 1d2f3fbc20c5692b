package repo

import (
	"github.com/nailstudio/salon-backend/internal/domain"
)

var blockSchema = schema[domain.Block, domain.BlockRecord]{
	name:   "blocks",
	encode: domain.EncodeBlock,
	decode: domain.DecodeBlock,
	key:    domain.BlockRecord.Key,
	init:   (*domain.Block).Initialize,
	less: func(a, b domain.Block) bool {
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.Seq < b.Seq
	},
}

var serviceSchema = schema[domain.Service, domain.Service]{
	name:   "services",
	encode: identity[domain.Service],
	decode: identity[domain.Service],
	key:    domain.Service.Key,
	init:   (*domain.Service).Initialize,
	less:   func(a, b domain.Service) bool { return a.Seq < b.Seq },
}

var reviewSchema = schema[domain.Review, domain.Review]{
	name:   "reviews",
	encode: identity[domain.Review],
	decode: identity[domain.Review],
	key:    domain.Review.Key,
	init:   (*domain.Review).Initialize,
	less: func(a, b domain.Review) bool {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.Seq, b.Seq)
	},
}

var requestSchema = schema[domain.Request, domain.Request]{
	name:   "requests",
	encode: identity[domain.Request],
	decode: identity[domain.Request],
	key:    domain.Request.Key,
	init:   (*domain.Request).Initialize,
	less: func(a, b domain.Request) bool {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.Seq, b.Seq)
	},
}

var subscriberSchema = schema[domain.Subscriber, domain.Subscriber]{
	name:         "subscribers",
	encode:       identity[domain.Subscriber],
	decode:       identity[domain.Subscriber],
	key:          domain.Subscriber.Key,
	init:         (*domain.Subscriber).Initialize,
	less:         func(a, b domain.Subscriber) bool { return a.Seq < b.Seq },
	uniqueColumn: "chat_id",
	uniqueValue:  func(s domain.Subscriber) string { return s.ChatID },
}

var imageSchema = schema[domain.Image, domain.Image]{
	name:   "images",
	encode: identity[domain.Image],
	decode: identity[domain.Image],
	key:    domain.Image.Key,
	init:   (*domain.Image).Initialize,
	less: func(a, b domain.Image) bool {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.Seq, b.Seq)
	},
}
