package sqlinline

const QInsertSourceImage = `--sql f09bdba3-9ab4-4fb9-a6e8-447a8858a648
insert into source_images (
    id,
    owner_id,
    original_filename,
    storage_key,
    mime_type,
    file_size,
    width,
    height,
    created_at
)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::bigint, $7::int, $8::int, now())
returning created_at;
`

const QSelectSourceImageForOwner = `--sql 74ea1ef6-3c18-47c2-a62e-26e0169c4d14
select
    id::text,
    owner_id,
    original_filename,
    storage_key,
    mime_type,
    file_size,
    width,
    height,
    created_at
from source_images
where id = $1::uuid
  and owner_id = $2::text;
`
