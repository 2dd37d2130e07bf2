package sqlinline

const QInsertImageIndex = `--sql 20c931b2-344e-4a91-8f9f-140bad4ecbe3
insert into generated_images (
    id,
    job_id,
    owner_id,
    filename,
    mime_type,
    file_size,
    width,
    height,
    scene_type,
    created_at
)
values ($1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::int, $7::int, $8::int, $9::text, now())
on conflict (id) do nothing;
`
